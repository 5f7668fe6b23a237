package domain

// EventKind tags a change event delivered by a table subscription.
// It is kept as an open string: the stream may deliver kinds this client
// does not recognize, and those must trigger a full refresh rather than
// be dropped silently.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ExerciseEvent is an asynchronous notification of a change to one of the
// subscribed user's exercise rows. New carries the row's new representation
// for inserts and updates; Old carries at least the row id for deletes.
type ExerciseEvent struct {
	Kind EventKind
	New  *Exercise
	Old  *Exercise
}

// WorkoutEvent is the workout-table counterpart of ExerciseEvent.
type WorkoutEvent struct {
	Kind EventKind
	New  *Workout
	Old  *Workout
}
