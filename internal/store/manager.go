package store

import (
	"context"
	"log"
	"sync"

	"fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session bundles the per-identity stores. All of a session's subscriptions
// share one context; cancelling it tears every store down together.
type Session struct {
	UserID    primitive.ObjectID
	Exercises *ExerciseStore
	Workouts  *WorkoutStore

	cancel context.CancelFunc
}

// Manager owns one Session per active identity. A store only exists while
// its identity is signed in; releasing the session cancels the change-event
// subscriptions so a stale subscription can never deliver another user's
// events into a new session's stores.
type Manager struct {
	exercises      repository.ExerciseRepository
	muscleGroups   repository.MuscleGroupRepository
	workouts       repository.WorkoutRepository
	workoutEntries repository.WorkoutExerciseRepository

	mu       sync.Mutex
	sessions map[primitive.ObjectID]*Session
}

// NewManager creates a manager over the shared repositories.
func NewManager(
	exercises repository.ExerciseRepository,
	muscleGroups repository.MuscleGroupRepository,
	workouts repository.WorkoutRepository,
	workoutEntries repository.WorkoutExerciseRepository,
) *Manager {
	return &Manager{
		exercises:      exercises,
		muscleGroups:   muscleGroups,
		workouts:       workouts,
		workoutEntries: workoutEntries,
		sessions:       make(map[primitive.ObjectID]*Session),
	}
}

// Session returns the identity's active session, starting its stores on
// first use. Entity stores are loaded once per authenticated session and
// then kept live by their subscriptions.
func (m *Manager) Session(userID primitive.ObjectID) (*Session, error) {
	m.mu.Lock()
	if session, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	exerciseStore := NewExerciseStore(m.exercises, m.muscleGroups, userID)
	if err := exerciseStore.Start(ctx); err != nil {
		cancel()
		return nil, err
	}

	workoutStore := NewWorkoutStore(m.workouts, m.workoutEntries, userID)
	if err := workoutStore.Start(ctx); err != nil {
		cancel()
		return nil, err
	}

	session := &Session{
		UserID:    userID,
		Exercises: exerciseStore,
		Workouts:  workoutStore,
		cancel:    cancel,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[userID]; ok {
		// Lost a startup race against another request for the same
		// identity; keep the first session and drop this one.
		cancel()
		return existing, nil
	}
	m.sessions[userID] = session
	return session, nil
}

// Release tears down the identity's session, if any. Called on sign-out and
// before an identity switch; results of requests still in flight are simply
// discarded once the context is cancelled.
func (m *Manager) Release(userID primitive.ObjectID) {
	m.mu.Lock()
	session, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		session.cancel()
		<-session.Exercises.Done()
		<-session.Workouts.Done()
		log.Printf("Released session for user %s", userID.Hex())
	}
}

// Close releases every active session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[primitive.ObjectID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
		<-s.Exercises.Done()
		<-s.Workouts.Done()
	}
}
