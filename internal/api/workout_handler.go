package api

import (
	"net/http"

	"fittrack/internal/domain"
	"fittrack/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler serves the workout log from the per-identity store and
// drives the composer for multi-row submissions.
type WorkoutHandler struct {
	sessions *store.Manager
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(sessions *store.Manager) *WorkoutHandler {
	return &WorkoutHandler{sessions: sessions}
}

func (h *WorkoutHandler) workoutStore(c *gin.Context) (*store.WorkoutStore, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return nil, false
	}
	session, err := h.sessions.Session(userID)
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "Failed to open session: "+err.Error())
		return nil, false
	}
	return session.Workouts, true
}

// ComposeWorkoutRequest is one user-facing submission: the workout's own
// fields plus the full ordered set of composed exercise entries.
type ComposeWorkoutRequest struct {
	Workout   domain.WorkoutForm           `json:"workout"`
	Exercises []domain.WorkoutExerciseForm `json:"exercises"`
}

// GetWorkouts returns the store's current snapshot.
func (h *WorkoutHandler) GetWorkouts(c *gin.Context) {
	s, ok := h.workoutStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// GetWorkoutDetail returns a workout with its ordered exercise entries.
func (h *WorkoutHandler) GetWorkoutDetail(c *gin.Context) {
	s, ok := h.workoutStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	detail, err := s.LoadDetail(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Workout not found")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ComposeWorkout creates a workout plus its entries in one submission. The
// backend only offers per-row writes, so a failure after the workout row
// exists leaves it with the entries inserted so far; the response then
// carries both the created workout and the error message.
func (h *WorkoutHandler) ComposeWorkout(c *gin.Context) {
	s, ok := h.workoutStore(c)
	if !ok {
		return
	}

	var req ComposeWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	composer := store.NewComposer(s)
	composer.SetEntries(req.Exercises)

	workout, err := composer.SaveNew(c.Request.Context(), req.Workout)
	if err != nil {
		if workout != nil {
			// Partial success: the workout row and a prefix of its entries
			// were persisted.
			c.JSON(http.StatusMultiStatus, gin.H{"workout": workout, "error": err.Error()})
			return
		}
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, workout)
}

// ReplaceWorkout edits a workout by full replace: its own fields are
// updated, all existing entries deleted, and the submitted set re-inserted.
func (h *WorkoutHandler) ReplaceWorkout(c *gin.Context) {
	s, ok := h.workoutStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	var req ComposeWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	composer := store.NewComposer(s)
	composer.SetEntries(req.Exercises)

	if err := composer.SaveEdit(c.Request.Context(), id, req.Workout); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "workout updated"})
}

// DeleteWorkout requests removal; the event stream drops the row.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	s, ok := h.workoutStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	if err := s.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete workout")
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshWorkouts re-fetches the full list; the manual recovery path.
func (h *WorkoutHandler) RefreshWorkouts(c *gin.Context) {
	s, ok := h.workoutStore(c)
	if !ok {
		return
	}

	if err := s.Refresh(c.Request.Context()); err != nil {
		abortWithError(c, http.StatusBadGateway, "Refresh failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}
