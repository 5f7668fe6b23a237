package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"fittrack/internal/domain"
	"fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// defaultGroups mirrors the seeded reference set as GetAll returns it,
// ordered by name.
func defaultGroups() []domain.MuscleGroup {
	return []domain.MuscleGroup{
		{ID: 3, Name: "arms"},
		{ID: 4, Name: "back"},
		{ID: 2, Name: "chest"},
		{ID: 5, Name: "legs"},
		{ID: 1, Name: "shoulders"},
	}
}

type fakeMuscleGroupRepo struct {
	groups []domain.MuscleGroup
	err    error
}

func (f *fakeMuscleGroupRepo) GetAll(ctx context.Context) ([]domain.MuscleGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.MuscleGroup(nil), f.groups...), nil
}

// fakeExerciseRepo is an in-memory ExerciseRepository. The items slice is
// what GetByUserID serves; events pushed into the events channel are
// forwarded to whatever Watch subscriber is active.
type fakeExerciseRepo struct {
	mu        sync.Mutex
	items     []domain.Exercise
	created   []domain.Exercise
	updates   []domain.ExerciseUpdate
	deleted   []primitive.ObjectID
	listCalls int

	createErr error
	listErr   error
	updateErr error
	deleteErr error
	watchErr  error

	events chan domain.ExerciseEvent
}

func newFakeExerciseRepo(items ...domain.Exercise) *fakeExerciseRepo {
	return &fakeExerciseRepo{
		items:  items,
		events: make(chan domain.ExerciseEvent, 16),
	}
}

func (f *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	row := *exercise
	row.ID = primitive.NewObjectID()
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	f.created = append(f.created, row)
	return &row, nil
}

func (f *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			row := f.items[i]
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExerciseRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Exercise
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeExerciseRepo) Update(ctx context.Context, id, userID primitive.ObjectID, update domain.ExerciseUpdate) (*domain.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, update)
	row := domain.Exercise{ID: id, UserID: userID, UpdatedAt: time.Now()}
	if update.Title != nil {
		row.Title = *update.Title
	}
	if update.MuscleGroupID != nil {
		row.MuscleGroupID = *update.MuscleGroupID
	}
	return &row, nil
}

func (f *fakeExerciseRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeExerciseRepo) Watch(ctx context.Context, userID primitive.ObjectID) (<-chan domain.ExerciseEvent, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	out := make(chan domain.ExerciseEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-f.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// fakeWorkoutRepo is an in-memory WorkoutRepository.
type fakeWorkoutRepo struct {
	mu      sync.Mutex
	items   []domain.Workout
	created []domain.Workout
	updates []domain.WorkoutUpdate
	deleted []primitive.ObjectID

	createErr error
	listErr   error
	updateErr error
	deleteErr error
	watchErr  error

	events chan domain.WorkoutEvent
}

func newFakeWorkoutRepo(items ...domain.Workout) *fakeWorkoutRepo {
	return &fakeWorkoutRepo{
		items:  items,
		events: make(chan domain.WorkoutEvent, 16),
	}
}

func (f *fakeWorkoutRepo) Create(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	row := *workout
	row.ID = primitive.NewObjectID()
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	f.created = append(f.created, row)
	return &row, nil
}

func (f *fakeWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			row := f.items[i]
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkoutRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Workout
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) Update(ctx context.Context, id, userID primitive.ObjectID, update domain.WorkoutUpdate) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, update)
	row := domain.Workout{ID: id, UserID: userID, UpdatedAt: time.Now()}
	if update.Title != nil {
		row.Title = *update.Title
	}
	return &row, nil
}

func (f *fakeWorkoutRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWorkoutRepo) Watch(ctx context.Context, userID primitive.ObjectID) (<-chan domain.WorkoutEvent, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	out := make(chan domain.WorkoutEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-f.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// fakeWorkoutEntryRepo is an in-memory WorkoutExerciseRepository. Setting
// failInsertAt to n makes the n-th Insert call fail, for exercising the
// composer's partial-failure path.
type fakeWorkoutEntryRepo struct {
	mu          sync.Mutex
	inserted    []domain.WorkoutExercise
	deleted     []primitive.ObjectID
	insertCalls int

	failInsertAt int
	insertErr    error
	getErr       error
	deleteErr    error
}

func (f *fakeWorkoutEntryRepo) Insert(ctx context.Context, entry *domain.WorkoutExercise) (*domain.WorkoutExercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failInsertAt > 0 && f.insertCalls == f.failInsertAt {
		if f.insertErr != nil {
			return nil, f.insertErr
		}
		return nil, errors.New("insert failed")
	}
	row := *entry
	row.ID = primitive.NewObjectID()
	row.CreatedAt = time.Now()
	f.inserted = append(f.inserted, row)
	return &row, nil
}

func (f *fakeWorkoutEntryRepo) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExerciseDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []domain.WorkoutExerciseDetail
	for _, row := range f.inserted {
		if row.WorkoutID == workoutID {
			out = append(out, domain.WorkoutExerciseDetail{WorkoutExercise: row})
		}
	}
	return out, nil
}

func (f *fakeWorkoutEntryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	for i := range f.inserted {
		if f.inserted[i].ID == id {
			f.inserted = append(f.inserted[:i], f.inserted[i+1:]...)
			break
		}
	}
	return nil
}

var (
	_ repository.ExerciseRepository        = (*fakeExerciseRepo)(nil)
	_ repository.MuscleGroupRepository     = (*fakeMuscleGroupRepo)(nil)
	_ repository.WorkoutRepository         = (*fakeWorkoutRepo)(nil)
	_ repository.WorkoutExerciseRepository = (*fakeWorkoutEntryRepo)(nil)
)
