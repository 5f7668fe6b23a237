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

// WorkoutStore holds the in-memory workout list for one authenticated
// identity. It mirrors ExerciseStore's lifecycle: load once, reconcile
// change events, fall back to refresh on anything unrecognized.
type WorkoutStore struct {
	workouts repository.WorkoutRepository
	entries  repository.WorkoutExerciseRepository
	userID   primitive.ObjectID

	mu      sync.Mutex
	items   []domain.Workout
	current *domain.WorkoutDetail
	loading bool
	errMsg  string

	done chan struct{}
}

// WorkoutSnapshot is the read surface published to the view layer.
type WorkoutSnapshot struct {
	Items   []domain.Workout      `json:"items"`
	Current *domain.WorkoutDetail `json:"current,omitempty"`
	Loading bool                  `json:"loading"`
	Error   string                `json:"error,omitempty"`
}

// NewWorkoutStore creates an inactive store for the given identity.
func NewWorkoutStore(workouts repository.WorkoutRepository, entries repository.WorkoutExerciseRepository, userID primitive.ObjectID) *WorkoutStore {
	return &WorkoutStore{
		workouts: workouts,
		entries:  entries,
		userID:   userID,
		loading:  true,
		done:     make(chan struct{}),
	}
}

// Start performs the initial load and opens the change-event subscription,
// which lives until ctx is cancelled.
func (s *WorkoutStore) Start(ctx context.Context) error {
	s.load(ctx)

	events, err := s.workouts.Watch(ctx, s.userID)
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
func (s *WorkoutStore) Done() <-chan struct{} {
	return s.done
}

func (s *WorkoutStore) load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	items, err := s.workouts.GetByUserID(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.items = items
}

// Refresh manually re-fetches the workout list.
func (s *WorkoutStore) Refresh(ctx context.Context) error {
	s.load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errMsg != "" {
		return errors.New(s.errMsg)
	}
	return nil
}

// Create issues the insert and returns the created row. Local state is
// reconciled by the resulting insert event, not appended optimistically.
func (s *WorkoutStore) Create(ctx context.Context, form domain.WorkoutForm) (*domain.Workout, error) {
	if form.Title == "" {
		return nil, s.fail("create", ErrTitleRequired)
	}

	workout := &domain.Workout{
		UserID:      s.userID,
		Title:       form.Title,
		Description: form.Description,
		WorkoutDate: form.WorkoutDate,
		Notes:       form.Notes,
		IsFavorite:  form.IsFavorite,
	}

	created, err := s.workouts.Create(ctx, workout)
	if err != nil {
		return nil, s.fail("create", err)
	}
	return created, nil
}

// Update applies a partial update to a workout's own fields.
func (s *WorkoutStore) Update(ctx context.Context, id primitive.ObjectID, update domain.WorkoutUpdate) (*domain.Workout, error) {
	updated, err := s.workouts.Update(ctx, id, s.userID, update)
	if err != nil {
		return nil, s.fail("update", err)
	}
	return updated, nil
}

// Delete requests removal; the event stream drops the row from local state.
func (s *WorkoutStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.workouts.Delete(ctx, id, s.userID); err != nil {
		return s.fail("delete", err)
	}
	return nil
}

// LoadDetail fetches a workout together with its ordered exercise entries
// and caches it as the current detail view.
func (s *WorkoutStore) LoadDetail(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutDetail, error) {
	workout, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("detail", err)
	}
	entries, err := s.entries.GetByWorkoutID(ctx, id)
	if err != nil {
		return nil, s.fail("detail", err)
	}

	detail := &domain.WorkoutDetail{Workout: *workout, Exercises: entries}
	s.mu.Lock()
	s.current = detail
	s.mu.Unlock()
	return detail, nil
}

// AddExercise persists one composed entry against an existing workout.
func (s *WorkoutStore) AddExercise(ctx context.Context, workoutID primitive.ObjectID, form domain.WorkoutExerciseForm) (*domain.WorkoutExercise, error) {
	entry := &domain.WorkoutExercise{
		WorkoutID:  workoutID,
		ExerciseID: form.ExerciseID,
		Sets:       form.Sets,
		Reps:       form.Reps,
		Weight:     form.Weight,
		Duration:   form.Duration,
		Notes:      form.Notes,
		OrderIndex: form.OrderIndex,
	}

	inserted, err := s.entries.Insert(ctx, entry)
	if err != nil {
		return nil, s.fail("add_exercise", err)
	}
	return inserted, nil
}

// RemoveExercise deletes one persisted entry row.
func (s *WorkoutStore) RemoveExercise(ctx context.Context, entryID primitive.ObjectID) error {
	if err := s.entries.Delete(ctx, entryID); err != nil {
		return s.fail("remove_exercise", err)
	}
	return nil
}

// Entries returns a workout's persisted entry rows in order_index order.
func (s *WorkoutStore) Entries(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExerciseDetail, error) {
	entries, err := s.entries.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		return nil, s.fail("entries", err)
	}
	return entries, nil
}

// ApplyEvent reconciles one change event; see ExerciseStore.ApplyEvent for
// the rules. A delete for the workout currently shown in detail also drops
// the cached detail view.
func (s *WorkoutStore) ApplyEvent(ctx context.Context, ev domain.WorkoutEvent) {
	switch ev.Kind {
	case domain.EventInsert:
		if ev.New == nil {
			return
		}
		s.mu.Lock()
		s.items = append([]domain.Workout{*ev.New}, s.items...)
		s.mu.Unlock()
		eventsApplied.WithLabelValues("workout", "insert").Inc()

	case domain.EventUpdate:
		if ev.New == nil {
			return
		}
		s.mu.Lock()
		for i := range s.items {
			if s.items[i].ID == ev.New.ID {
				s.items[i] = *ev.New
				break
			}
		}
		if s.current != nil && s.current.ID == ev.New.ID {
			s.current.Workout = *ev.New
		}
		s.mu.Unlock()
		eventsApplied.WithLabelValues("workout", "update").Inc()

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
		if s.current != nil && s.current.ID == ev.Old.ID {
			s.current = nil
		}
		s.mu.Unlock()
		eventsApplied.WithLabelValues("workout", "delete").Inc()

	default:
		log.Printf("WARN: Unrecognized workout event kind %q, refreshing", ev.Kind)
		refreshFallbacks.WithLabelValues("workout").Inc()
		_ = s.Refresh(ctx)
	}
}

// Snapshot returns a copy of the store's published state.
func (s *WorkoutStore) Snapshot() WorkoutSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := WorkoutSnapshot{
		Items:   append([]domain.Workout(nil), s.items...),
		Loading: s.loading,
		Error:   s.errMsg,
	}
	if s.current != nil {
		detail := *s.current
		snap.Current = &detail
	}
	return snap
}

func (s *WorkoutStore) fail(op string, err error) error {
	mutationErrors.WithLabelValues("workout", op).Inc()
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	return err
}
