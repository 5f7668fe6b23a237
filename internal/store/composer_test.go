package store

import (
	"context"
	"errors"
	"testing"

	"fittrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func entryFor(exerciseID primitive.ObjectID) domain.WorkoutExerciseForm {
	return domain.WorkoutExerciseForm{ExerciseID: exerciseID, Sets: 3, Reps: 10}
}

func assertContiguous(t *testing.T, entries []domain.WorkoutExerciseForm) {
	t.Helper()
	for i, entry := range entries {
		assert.Equal(t, i, entry.OrderIndex, "order indexes must be contiguous from zero")
	}
}

func TestComposerAddAssignsNextIndex(t *testing.T) {
	c := NewComposer(testWorkoutStore(newFakeWorkoutRepo(), &fakeWorkoutEntryRepo{}, primitive.NewObjectID()))

	for i := 0; i < 3; i++ {
		c.Add(entryFor(primitive.NewObjectID()))
	}

	entries := c.Entries()
	require.Len(t, entries, 3)
	assertContiguous(t, entries)
}

func TestComposerRemoveRenumbers(t *testing.T) {
	c := NewComposer(testWorkoutStore(newFakeWorkoutRepo(), &fakeWorkoutEntryRepo{}, primitive.NewObjectID()))
	first := primitive.NewObjectID()
	third := primitive.NewObjectID()
	c.Add(entryFor(first))
	c.Add(entryFor(primitive.NewObjectID()))
	c.Add(entryFor(third))

	c.Remove(1)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0].ExerciseID)
	assert.Equal(t, third, entries[1].ExerciseID)
	assertContiguous(t, entries)

	// Out-of-range removals are ignored.
	c.Remove(-1)
	c.Remove(5)
	assert.Len(t, c.Entries(), 2)
}

func TestComposerMoveReordersAndRenumbers(t *testing.T) {
	c := NewComposer(testWorkoutStore(newFakeWorkoutRepo(), &fakeWorkoutEntryRepo{}, primitive.NewObjectID()))
	a, b, d := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	c.Add(entryFor(a))
	c.Add(entryFor(b))
	c.Add(entryFor(d))

	c.Move(0, 2)

	entries := c.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, b, entries[0].ExerciseID)
	assert.Equal(t, d, entries[1].ExerciseID)
	assert.Equal(t, a, entries[2].ExerciseID)
	assertContiguous(t, entries)
}

func TestComposerSetEntriesRenumbers(t *testing.T) {
	c := NewComposer(testWorkoutStore(newFakeWorkoutRepo(), &fakeWorkoutEntryRepo{}, primitive.NewObjectID()))

	c.SetEntries([]domain.WorkoutExerciseForm{
		{ExerciseID: primitive.NewObjectID(), OrderIndex: 7},
		{ExerciseID: primitive.NewObjectID(), OrderIndex: 2},
	})

	assertContiguous(t, c.Entries())
}

func TestComposerLoadSeedsFromPersistedRows(t *testing.T) {
	c := NewComposer(testWorkoutStore(newFakeWorkoutRepo(), &fakeWorkoutEntryRepo{}, primitive.NewObjectID()))
	exerciseID := primitive.NewObjectID()

	c.Load([]domain.WorkoutExerciseDetail{
		{WorkoutExercise: domain.WorkoutExercise{ExerciseID: exerciseID, Sets: 4, Reps: 8, OrderIndex: 9}},
		{WorkoutExercise: domain.WorkoutExercise{ExerciseID: primitive.NewObjectID(), OrderIndex: 12}},
	})

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, exerciseID, entries[0].ExerciseID)
	assert.Equal(t, 4, entries[0].Sets)
	assertContiguous(t, entries)
}

func TestSaveNewPersistsWorkoutThenEntriesInOrder(t *testing.T) {
	userID := primitive.NewObjectID()
	workouts := newFakeWorkoutRepo()
	entries := &fakeWorkoutEntryRepo{}
	c := NewComposer(testWorkoutStore(workouts, entries, userID))
	for i := 0; i < 3; i++ {
		c.Add(entryFor(primitive.NewObjectID()))
	}

	workout, err := c.SaveNew(context.Background(), domain.WorkoutForm{Title: "Full Body"})
	require.NoError(t, err)
	require.NotNil(t, workout)

	require.Len(t, entries.inserted, 3)
	for i, row := range entries.inserted {
		assert.Equal(t, workout.ID, row.WorkoutID)
		assert.Equal(t, i, row.OrderIndex)
	}
}

func TestSaveNewPartialFailureKeepsWorkoutAndPrefix(t *testing.T) {
	userID := primitive.NewObjectID()
	workouts := newFakeWorkoutRepo()
	entries := &fakeWorkoutEntryRepo{failInsertAt: 2}
	c := NewComposer(testWorkoutStore(workouts, entries, userID))
	for i := 0; i < 3; i++ {
		c.Add(entryFor(primitive.NewObjectID()))
	}

	workout, err := c.SaveNew(context.Background(), domain.WorkoutForm{Title: "Full Body"})

	require.Error(t, err)
	require.NotNil(t, workout, "the created workout is returned alongside the error")
	assert.Contains(t, err.Error(), "2 of 3")
	assert.Len(t, workouts.created, 1, "no compensating rollback")
	assert.Len(t, entries.inserted, 1, "entries before the failure stay persisted")
}

func TestSaveNewWorkoutCreateFailure(t *testing.T) {
	workouts := newFakeWorkoutRepo()
	workouts.createErr = errors.New("insert rejected")
	entries := &fakeWorkoutEntryRepo{}
	c := NewComposer(testWorkoutStore(workouts, entries, primitive.NewObjectID()))
	c.Add(entryFor(primitive.NewObjectID()))

	workout, err := c.SaveNew(context.Background(), domain.WorkoutForm{Title: "Full Body"})

	require.Error(t, err)
	assert.Nil(t, workout)
	assert.Empty(t, entries.inserted, "no entries are written when the workout row fails")
}

func TestSaveEditReplacesEntriesWholesale(t *testing.T) {
	userID := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()
	workouts := newFakeWorkoutRepo(domain.Workout{ID: workoutID, UserID: userID, Title: "Old Title"})
	entries := &fakeWorkoutEntryRepo{}
	s := testWorkoutStore(workouts, entries, userID)

	// Two rows already persisted against the workout.
	for i := 0; i < 2; i++ {
		_, err := s.AddExercise(context.Background(), workoutID, domain.WorkoutExerciseForm{
			ExerciseID: primitive.NewObjectID(),
			OrderIndex: i,
		})
		require.NoError(t, err)
	}
	oldIDs := []primitive.ObjectID{entries.inserted[0].ID, entries.inserted[1].ID}

	c := NewComposer(s)
	replacement := primitive.NewObjectID()
	c.Add(entryFor(replacement))

	err := c.SaveEdit(context.Background(), workoutID, domain.WorkoutForm{Title: "New Title"})
	require.NoError(t, err)

	require.Len(t, workouts.updates, 1)
	require.NotNil(t, workouts.updates[0].Title)
	assert.Equal(t, "New Title", *workouts.updates[0].Title)
	assert.Nil(t, workouts.updates[0].WorkoutDate, "a zero date is not written")

	assert.ElementsMatch(t, oldIDs, entries.deleted, "every pre-existing row is removed")
	require.Len(t, entries.inserted, 1)
	assert.Equal(t, replacement, entries.inserted[0].ExerciseID)
	assert.Equal(t, 0, entries.inserted[0].OrderIndex)
}

func TestSaveEditStopsOnRemovalFailure(t *testing.T) {
	userID := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()
	workouts := newFakeWorkoutRepo(domain.Workout{ID: workoutID, UserID: userID, Title: "Old"})
	entries := &fakeWorkoutEntryRepo{}
	s := testWorkoutStore(workouts, entries, userID)

	_, err := s.AddExercise(context.Background(), workoutID, domain.WorkoutExerciseForm{ExerciseID: primitive.NewObjectID()})
	require.NoError(t, err)

	entries.deleteErr = errors.New("delete rejected")
	c := NewComposer(s)
	c.Add(entryFor(primitive.NewObjectID()))

	err = c.SaveEdit(context.Background(), workoutID, domain.WorkoutForm{Title: "New"})

	require.Error(t, err)
	assert.Len(t, entries.inserted, 1, "no new rows are written once the sequence fails")
}
