package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"fittrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testExerciseStore returns a store with the reference set loaded and the
// given items in place, without opening a subscription. Event handling is
// exercised through ApplyEvent directly so tests stay deterministic.
func testExerciseStore(repo *fakeExerciseRepo, userID primitive.ObjectID, items ...domain.Exercise) *ExerciseStore {
	s := NewExerciseStore(repo, &fakeMuscleGroupRepo{groups: defaultGroups()}, userID)
	s.muscleGroups = defaultGroups()
	s.items = items
	s.loading = false
	return s
}

func TestStartLoadsGroupsAndItems(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := newFakeExerciseRepo(
		domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Squat"},
		domain.Exercise{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Title: "Someone else's"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewExerciseStore(repo, &fakeMuscleGroupRepo{groups: defaultGroups()}, userID)
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	require.Len(t, snap.Items, 1, "only the owner's rows are loaded")
	assert.Equal(t, "Squat", snap.Items[0].Title)
	assert.Len(t, snap.MuscleGroups, 5)
}

func TestStartSurfacesWatchFailure(t *testing.T) {
	repo := newFakeExerciseRepo()
	repo.watchErr = errors.New("change stream unavailable")

	s := NewExerciseStore(repo, &fakeMuscleGroupRepo{groups: defaultGroups()}, primitive.NewObjectID())
	err := s.Start(context.Background())
	require.Error(t, err)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done must be closed when the subscription never opened")
	}
}

func TestApplyInsertPrependsAndFillsGroupName(t *testing.T) {
	userID := primitive.NewObjectID()
	existing := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Old"}
	s := testExerciseStore(newFakeExerciseRepo(), userID, existing)

	row := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "New", MuscleGroupID: 2}
	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventInsert, New: &row})

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, row.ID, snap.Items[0].ID, "new rows go to the front, the list is newest-first")
	assert.Equal(t, "chest", snap.Items[0].MuscleGroup, "group name is resolved from the foreign key")
	assert.Equal(t, existing.ID, snap.Items[1].ID)
}

func TestApplyUpdateReplacesMatchingRow(t *testing.T) {
	userID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	s := testExerciseStore(newFakeExerciseRepo(), userID,
		domain.Exercise{ID: id, UserID: userID, Title: "Before"},
		domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Other"},
	)

	row := domain.Exercise{ID: id, UserID: userID, Title: "After"}
	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventUpdate, New: &row})

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "After", snap.Items[0].Title)
	assert.Equal(t, "Other", snap.Items[1].Title)
}

func TestApplyUpdateForAbsentRowIsNoOp(t *testing.T) {
	userID := primitive.NewObjectID()
	existing := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Only"}
	s := testExerciseStore(newFakeExerciseRepo(), userID, existing)

	row := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Ghost"}
	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventUpdate, New: &row})

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Only", snap.Items[0].Title)
}

func TestApplyDeleteRemovesMatchingRow(t *testing.T) {
	userID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	s := testExerciseStore(newFakeExerciseRepo(), userID,
		domain.Exercise{ID: id, UserID: userID, Title: "Doomed"},
		domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Kept"},
	)

	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventDelete, Old: &domain.Exercise{ID: id}})

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Kept", snap.Items[0].Title)
}

func TestApplyDeleteForAbsentRowIsNoOp(t *testing.T) {
	userID := primitive.NewObjectID()
	s := testExerciseStore(newFakeExerciseRepo(), userID,
		domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Kept"},
	)

	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventDelete, Old: &domain.Exercise{ID: primitive.NewObjectID()}})

	assert.Len(t, s.Snapshot().Items, 1)
}

func TestApplyDeleteClearsSelectionOfDeletedRow(t *testing.T) {
	userID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	s := testExerciseStore(newFakeExerciseRepo(), userID,
		domain.Exercise{ID: id, UserID: userID, Title: "Selected"},
	)
	s.Select(id)
	s.StartEdit()

	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventDelete, Old: &domain.Exercise{ID: id}})

	snap := s.Snapshot()
	assert.Empty(t, snap.SelectedID)
	assert.False(t, snap.EditMode)
}

func TestApplyUnknownKindFallsBackToRefresh(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := newFakeExerciseRepo(
		domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Server truth"},
	)
	s := testExerciseStore(repo, userID) // local list starts empty

	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventKind("truncate")})

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Server truth", snap.Items[0].Title)
	assert.Equal(t, 1, repo.listCalls)
}

func TestCreateRejectsUnknownMuscleGroupBeforeAnyWrite(t *testing.T) {
	repo := newFakeExerciseRepo()
	s := testExerciseStore(repo, primitive.NewObjectID())

	_, err := s.Create(context.Background(), domain.ExerciseForm{Title: "Jump Rope", Muscles: "cardio"})

	require.ErrorIs(t, err, ErrInvalidMuscleGroup)
	assert.Empty(t, repo.created, "validation failures must not reach the backend")
	assert.NotEmpty(t, s.Snapshot().Error)
}

func TestCreateRequiresTitle(t *testing.T) {
	repo := newFakeExerciseRepo()
	s := testExerciseStore(repo, primitive.NewObjectID())

	_, err := s.Create(context.Background(), domain.ExerciseForm{Muscles: "chest"})

	require.ErrorIs(t, err, ErrTitleRequired)
	assert.Empty(t, repo.created)
}

func TestCreateDoesNotAppendLocally(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := newFakeExerciseRepo()
	s := testExerciseStore(repo, userID)

	created, err := s.Create(context.Background(), domain.ExerciseForm{Title: "Bench Press", Muscles: "chest"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 2, created.MuscleGroupID)

	// The insert event is what adds the row; until it arrives the local
	// list is unchanged.
	assert.Empty(t, s.Snapshot().Items)
	require.Len(t, repo.created, 1)
	assert.Equal(t, userID, repo.created[0].UserID)
}

func TestUpdatePassesOnlyProvidedFields(t *testing.T) {
	repo := newFakeExerciseRepo()
	s := testExerciseStore(repo, primitive.NewObjectID())

	muscles := "legs"
	sets := 5
	_, err := s.Update(context.Background(), primitive.NewObjectID(), domain.ExercisePatch{
		Muscles: &muscles,
		Sets:    &sets,
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	update := repo.updates[0]
	require.NotNil(t, update.MuscleGroupID)
	assert.Equal(t, 5, *update.MuscleGroupID)
	require.NotNil(t, update.Sets)
	assert.Equal(t, 5, *update.Sets)
	assert.Nil(t, update.Title)
	assert.Nil(t, update.Description)
	assert.Nil(t, update.Reps)
	assert.Nil(t, update.IsFavorite)
}

func TestUpdateRejectsUnknownMuscleGroup(t *testing.T) {
	repo := newFakeExerciseRepo()
	s := testExerciseStore(repo, primitive.NewObjectID())

	muscles := "cardio"
	_, err := s.Update(context.Background(), primitive.NewObjectID(), domain.ExercisePatch{Muscles: &muscles})

	require.ErrorIs(t, err, ErrInvalidMuscleGroup)
	assert.Empty(t, repo.updates)
}

func TestToggleFavoriteSendsSingleFieldUpdate(t *testing.T) {
	repo := newFakeExerciseRepo()
	s := testExerciseStore(repo, primitive.NewObjectID())

	_, err := s.ToggleFavorite(context.Background(), primitive.NewObjectID(), true)
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	update := repo.updates[0]
	require.NotNil(t, update.IsFavorite)
	assert.True(t, *update.IsFavorite)
	assert.Nil(t, update.Title)
	assert.Nil(t, update.MuscleGroupID)
}

func TestRefreshKeepsLastKnownGoodOnFailure(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := newFakeExerciseRepo()
	existing := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Kept"}
	s := testExerciseStore(repo, userID, existing)

	repo.listErr = errors.New("backend down")
	err := s.Refresh(context.Background())

	require.Error(t, err)
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1, "failed refresh must not clear the list")
	assert.Equal(t, "Kept", snap.Items[0].Title)
	assert.NotEmpty(t, snap.Error)
}

func TestGroupedReflectsCurrentState(t *testing.T) {
	userID := primitive.NewObjectID()
	s := testExerciseStore(newFakeExerciseRepo(), userID,
		domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Bench Press", MuscleGroup: "chest"},
	)

	views := s.Grouped()
	require.Len(t, views, 5)

	byName := map[string]int{}
	for _, v := range views {
		byName[v.Name] = len(v.Exercises)
	}
	assert.Equal(t, 1, byName["chest"])
	assert.Equal(t, 0, byName["legs"])

	// A delivered insert event shows up on the next recomputation.
	row := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Squat", MuscleGroupID: 5}
	s.ApplyEvent(context.Background(), domain.ExerciseEvent{Kind: domain.EventInsert, New: &row})

	byName = map[string]int{}
	for _, v := range s.Grouped() {
		byName[v.Name] = len(v.Exercises)
	}
	assert.Equal(t, 1, byName["legs"])
}

func TestEventsDeliveredThroughSubscription(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := newFakeExerciseRepo()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewExerciseStore(repo, &fakeMuscleGroupRepo{groups: defaultGroups()}, userID)
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})

	row := domain.Exercise{ID: primitive.NewObjectID(), UserID: userID, Title: "Deadlift"}
	repo.events <- domain.ExerciseEvent{Kind: domain.EventInsert, New: &row}

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Items) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Deadlift", s.Snapshot().Items[0].Title)
}
