package store

import (
	"context"
	"fmt"
	"sync"

	"fittrack/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Composer assembles a workout plus an ordered set of exercise entries in
// one user-facing submission. The backend only offers per-row operations,
// so saving sequences individual writes; a failure mid-sequence leaves the
// workout with the rows written so far. That partial-success outcome is
// deliberate and surfaced to the caller as a single error.
//
// The in-progress entry list is local state, independent of the persisted
// rows; order indexes stay contiguous from zero through every append,
// removal, and reorder.
type Composer struct {
	store *WorkoutStore

	mu      sync.Mutex
	entries []domain.WorkoutExerciseForm
}

// NewComposer creates an empty composer bound to a workout store.
func NewComposer(store *WorkoutStore) *Composer {
	return &Composer{store: store}
}

// Add appends an entry at the end of the composed list.
func (c *Composer) Add(entry domain.WorkoutExerciseForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry.OrderIndex = len(c.entries)
	c.entries = append(c.entries, entry)
}

// Remove deletes the entry at position i and renumbers the remainder so
// order indexes stay contiguous. Out-of-range positions are ignored.
func (c *Composer) Remove(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.entries) {
		return
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.renumber()
}

// Move shifts the entry at position from to position to, renumbering.
func (c *Composer) Move(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if from < 0 || from >= len(c.entries) || to < 0 || to >= len(c.entries) || from == to {
		return
	}
	entry := c.entries[from]
	c.entries = append(c.entries[:from], c.entries[from+1:]...)
	rest := append([]domain.WorkoutExerciseForm{}, c.entries[to:]...)
	c.entries = append(append(c.entries[:to], entry), rest...)
	c.renumber()
}

// Load seeds the composer from a workout's persisted entries, for editing.
// Indexes are renumbered locally; the backend is not trusted to have kept
// them contiguous.
func (c *Composer) Load(persisted []domain.WorkoutExerciseDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = c.entries[:0]
	for _, p := range persisted {
		c.entries = append(c.entries, domain.WorkoutExerciseForm{
			ExerciseID: p.ExerciseID,
			Sets:       p.Sets,
			Reps:       p.Reps,
			Weight:     p.Weight,
			Duration:   p.Duration,
			Notes:      p.Notes,
		})
	}
	c.renumber()
}

// Entries returns a copy of the composed list.
func (c *Composer) Entries() []domain.WorkoutExerciseForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.WorkoutExerciseForm(nil), c.entries...)
}

// SetEntries replaces the composed list wholesale, renumbering. Used when
// the view layer submits the full composed set in one request.
func (c *Composer) SetEntries(entries []domain.WorkoutExerciseForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries[:0], entries...)
	c.renumber()
}

// renumber makes order indexes contiguous from zero. Caller holds mu.
func (c *Composer) renumber() {
	for i := range c.entries {
		c.entries[i].OrderIndex = i
	}
}

// SaveNew creates the workout row first, then inserts one entry per
// composed exercise in order-index order. If an entry insert fails, the
// workout and the entries inserted before it remain persisted; there is no
// compensating rollback. The created workout is returned even alongside an
// error so the caller can name what was partially saved.
func (c *Composer) SaveNew(ctx context.Context, form domain.WorkoutForm) (*domain.Workout, error) {
	workout, err := c.store.Create(ctx, form)
	if err != nil {
		return nil, err
	}

	for i, entry := range c.Entries() {
		if _, err := c.store.AddExercise(ctx, workout.ID, entry); err != nil {
			return workout, fmt.Errorf("workout saved, but adding exercise %d of %d failed: %w", i+1, len(c.Entries()), err)
		}
	}

	return workout, nil
}

// SaveEdit updates the workout's own fields, then replaces its entries
// wholesale: every existing row is deleted and the composed set re-inserted.
// Full replace was chosen over incremental diffing for simplicity; it is
// not atomic, and a failure mid-sequence can leave the workout with a
// subset of its exercises.
func (c *Composer) SaveEdit(ctx context.Context, workoutID primitive.ObjectID, form domain.WorkoutForm) error {
	update := domain.WorkoutUpdate{
		Title:       &form.Title,
		Description: &form.Description,
		Notes:       &form.Notes,
		IsFavorite:  &form.IsFavorite,
	}
	if !form.WorkoutDate.IsZero() {
		update.WorkoutDate = &form.WorkoutDate
	}
	if _, err := c.store.Update(ctx, workoutID, update); err != nil {
		return err
	}

	existing, err := c.store.Entries(ctx, workoutID)
	if err != nil {
		return err
	}
	for _, row := range existing {
		if err := c.store.RemoveExercise(ctx, row.ID); err != nil {
			return err
		}
	}

	for i, entry := range c.Entries() {
		if _, err := c.store.AddExercise(ctx, workoutID, entry); err != nil {
			return fmt.Errorf("workout updated, but re-adding exercise %d failed: %w", i+1, err)
		}
	}

	return nil
}
