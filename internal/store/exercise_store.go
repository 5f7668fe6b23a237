package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"fittrack/internal/domain"
	"fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidMuscleGroup = errors.New("invalid muscle group")
	ErrTitleRequired      = errors.New("title is required")
)

// ExerciseStore holds the in-memory exercise list for one authenticated
// identity, loaded once and kept consistent by the change-event stream.
// The view layer never touches the list directly; every mutation goes
// through the store's operations and lands back via an event (or, degraded,
// a manual refresh).
type ExerciseStore struct {
	exercises repository.ExerciseRepository
	groups    repository.MuscleGroupRepository
	userID    primitive.ObjectID

	// All state writes are serialized behind mu. Between a refresh and a
	// concurrently delivered event the last writer wins; no version vector.
	mu           sync.Mutex
	items        []domain.Exercise
	muscleGroups []domain.MuscleGroup
	loading      bool
	errMsg       string
	selectedID   primitive.ObjectID
	editMode     bool

	done chan struct{} // closed when the subscriber goroutine exits
}

// ExerciseSnapshot is the read surface published to the view layer.
type ExerciseSnapshot struct {
	Items        []domain.Exercise    `json:"items"`
	MuscleGroups []domain.MuscleGroup `json:"muscleGroups"`
	Loading      bool                 `json:"loading"`
	Error        string               `json:"error,omitempty"`
	SelectedID   string               `json:"selectedId,omitempty"`
	EditMode     bool                 `json:"editMode"`
}

// NewExerciseStore creates an inactive store for the given identity.
func NewExerciseStore(exercises repository.ExerciseRepository, groups repository.MuscleGroupRepository, userID primitive.ObjectID) *ExerciseStore {
	return &ExerciseStore{
		exercises: exercises,
		groups:    groups,
		userID:    userID,
		loading:   true,
		done:      make(chan struct{}),
	}
}

// Start performs the initial loads and opens the change-event subscription.
// The subscription lives until ctx is cancelled; cancelling it is the only
// way to tear the store down, and it must happen before another identity's
// store is started in its place.
func (s *ExerciseStore) Start(ctx context.Context) error {
	if groups, err := s.groups.GetAll(ctx); err != nil {
		s.recordError(err)
	} else {
		s.mu.Lock()
		s.muscleGroups = groups
		s.mu.Unlock()
	}

	s.load(ctx)

	events, err := s.exercises.Watch(ctx, s.userID)
	if err != nil {
		close(s.done)
		return err
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			s.ApplyEvent(ctx, ev)
		}
	}()

	return nil
}

// Done is closed once the subscriber goroutine has exited.
func (s *ExerciseStore) Done() <-chan struct{} {
	return s.done
}

// load fetches the owner's full list, newest-first, and replaces local
// state. On failure the error is recorded and the list is left as-is
// (empty on first load, last-known-good on refresh).
func (s *ExerciseStore) load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	items, err := s.exercises.GetByUserID(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.items = items
}

// Refresh manually re-fetches the list. It is the recovery path when the
// event stream delivers a shape this client does not recognize.
func (s *ExerciseStore) Refresh(ctx context.Context) error {
	s.load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errMsg != "" {
		return errors.New(s.errMsg)
	}
	return nil
}

// Create validates the form, resolves the muscle group name to its foreign
// key, and issues the insert. The created row is NOT appended locally; the
// change-event subscription appends the server-confirmed row, which avoids
// optimistic-vs-confirmed divergence.
func (s *ExerciseStore) Create(ctx context.Context, form domain.ExerciseForm) (*domain.Exercise, error) {
	if form.Title == "" {
		return nil, s.fail("create", ErrTitleRequired)
	}
	groupID, ok := s.resolveMuscleGroup(form.Muscles)
	if !ok {
		return nil, s.fail("create", ErrInvalidMuscleGroup)
	}

	exercise := &domain.Exercise{
		UserID:        s.userID,
		Title:         form.Title,
		Description:   form.Description,
		MuscleGroupID: groupID,
		Sets:          form.Sets,
		Reps:          form.Reps,
		Weight:        form.Weight,
		Duration:      form.Duration,
		Notes:         form.Notes,
		IsFavorite:    form.IsFavorite,
	}

	created, err := s.exercises.Create(ctx, exercise)
	if err != nil {
		return nil, s.fail("create", err)
	}
	return created, nil
}

// Update applies a partial update. Absent fields are untouched server-side.
// When the muscle field is present it follows the same resolution rule as
// Create. Local state is reconciled by the resulting update event.
func (s *ExerciseStore) Update(ctx context.Context, id primitive.ObjectID, patch domain.ExercisePatch) (*domain.Exercise, error) {
	update := domain.ExerciseUpdate{
		Title:       patch.Title,
		Description: patch.Description,
		Sets:        patch.Sets,
		Reps:        patch.Reps,
		Weight:      patch.Weight,
		Duration:    patch.Duration,
		Notes:       patch.Notes,
		IsFavorite:  patch.IsFavorite,
	}
	if patch.Muscles != nil {
		groupID, ok := s.resolveMuscleGroup(*patch.Muscles)
		if !ok {
			return nil, s.fail("update", ErrInvalidMuscleGroup)
		}
		update.MuscleGroupID = &groupID
	}

	updated, err := s.exercises.Update(ctx, id, s.userID, update)
	if err != nil {
		return nil, s.fail("update", err)
	}
	return updated, nil
}

// ToggleFavorite flips the favorite flag via a single-field partial update.
func (s *ExerciseStore) ToggleFavorite(ctx context.Context, id primitive.ObjectID, favorite bool) (*domain.Exercise, error) {
	return s.Update(ctx, id, domain.ExercisePatch{IsFavorite: &favorite})
}

// Delete requests removal. The event stream drops the row from local state;
// if the deleted row is currently selected, applying that event also clears
// the selection and edit mode.
func (s *ExerciseStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.exercises.Delete(ctx, id, s.userID); err != nil {
		return s.fail("delete", err)
	}
	return nil
}

// ApplyEvent reconciles one change event into local state:
// insert prepends (the list is newest-first and new rows are assumed
// newest), update replaces by id and is a no-op for absent ids, delete
// removes by the old row's id. Any other kind triggers a full refresh,
// trading efficiency for correctness.
func (s *ExerciseStore) ApplyEvent(ctx context.Context, ev domain.ExerciseEvent) {
	switch ev.Kind {
	case domain.EventInsert:
		if ev.New == nil {
			return
		}
		row := *ev.New
		s.mu.Lock()
		s.fillGroupName(&row)
		s.items = append([]domain.Exercise{row}, s.items...)
		s.mu.Unlock()
		eventsApplied.WithLabelValues("exercise", "insert").Inc()

	case domain.EventUpdate:
		if ev.New == nil {
			return
		}
		row := *ev.New
		s.mu.Lock()
		s.fillGroupName(&row)
		for i := range s.items {
			if s.items[i].ID == row.ID {
				s.items[i] = row
				break
			}
		}
		s.mu.Unlock()
		eventsApplied.WithLabelValues("exercise", "update").Inc()

	case domain.EventDelete:
		if ev.Old == nil {
			return
		}
		s.mu.Lock()
		for i := range s.items {
			if s.items[i].ID == ev.Old.ID {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
		if s.selectedID == ev.Old.ID {
			s.selectedID = primitive.NilObjectID
			s.editMode = false
		}
		s.mu.Unlock()
		eventsApplied.WithLabelValues("exercise", "delete").Inc()

	default:
		log.Printf("WARN: Unrecognized exercise event kind %q, refreshing", ev.Kind)
		refreshFallbacks.WithLabelValues("exercise").Inc()
		_ = s.Refresh(ctx)
	}
}

// Snapshot returns a copy of the store's published state.
func (s *ExerciseStore) Snapshot() ExerciseSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := ExerciseSnapshot{
		Items:        append([]domain.Exercise(nil), s.items...),
		MuscleGroups: append([]domain.MuscleGroup(nil), s.muscleGroups...),
		Loading:      s.loading,
		Error:        s.errMsg,
		EditMode:     s.editMode,
	}
	if s.selectedID != primitive.NilObjectID {
		snap.SelectedID = s.selectedID.Hex()
	}
	return snap
}

// Grouped recomputes the derived catalog index from current state.
func (s *ExerciseStore) Grouped() []MuscleGroupView {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := make([]string, len(s.muscleGroups))
	for i, g := range s.muscleGroups {
		categories[i] = g.Name
	}
	return GroupByMuscle(s.items, categories)
}

// Select marks an exercise as shown in the detail pane.
func (s *ExerciseStore) Select(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
	s.editMode = false
}

// StartEdit switches the detail pane into edit mode.
func (s *ExerciseStore) StartEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID != primitive.NilObjectID {
		s.editMode = true
	}
}

// ClearSelection clears both the selection and edit mode.
func (s *ExerciseStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = primitive.NilObjectID
	s.editMode = false
}

// resolveMuscleGroup maps a submitted group name onto its foreign key using
// the loaded reference set.
func (s *ExerciseStore) resolveMuscleGroup(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.muscleGroups {
		if g.Name == name {
			return g.ID, true
		}
	}
	return 0, false
}

// fillGroupName resolves the denormalized group name for rows arriving via
// change events, which carry only the foreign key. Caller holds mu.
func (s *ExerciseStore) fillGroupName(ex *domain.Exercise) {
	if ex.MuscleGroup != "" {
		return
	}
	for _, g := range s.muscleGroups {
		if g.ID == ex.MuscleGroupID {
			ex.MuscleGroup = g.Name
			return
		}
	}
}

// fail records a mutation error on the store and passes it through.
func (s *ExerciseStore) fail(op string, err error) error {
	mutationErrors.WithLabelValues("exercise", op).Inc()
	s.recordError(err)
	return err
}

func (s *ExerciseStore) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = err.Error()
}
