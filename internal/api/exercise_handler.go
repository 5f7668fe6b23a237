package api

import (
	"errors"
	"net/http"

	"fittrack/internal/domain"
	"fittrack/internal/service"
	"fittrack/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler serves the exercise catalog from the per-identity store.
type ExerciseHandler struct {
	sessions    *store.Manager
	attachments service.AttachmentService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(sessions *store.Manager, attachments service.AttachmentService) *ExerciseHandler {
	return &ExerciseHandler{sessions: sessions, attachments: attachments}
}

// exerciseStore resolves the caller's session and returns its exercise store.
func (h *ExerciseHandler) exerciseStore(c *gin.Context) (*store.ExerciseStore, bool) {
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
	return session.Exercises, true
}

// GetExercises godoc
// @Summary Get the exercise catalog snapshot
// @Description Returns the store's current items, loading flag and last error.
// @Tags Exercises
// @Produce json
// @Success 200 {object} store.ExerciseSnapshot
// @Security BearerAuth
// @Router /exercises [get]
func (h *ExerciseHandler) GetExercises(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// GetGroupedExercises returns the derived catalog index: one group per
// known muscle category, in category order, empty groups included.
func (h *ExerciseHandler) GetGroupedExercises(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": s.Grouped()})
}

// CreateExercise godoc
// @Summary Create a new exercise
// @Description The muscle group is submitted by name and must resolve against the loaded reference set.
// @Tags Exercises
// @Accept json
// @Produce json
// @Success 201 {object} domain.Exercise
// @Security BearerAuth
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}

	var form domain.ExerciseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.Create(c.Request.Context(), form)
	if err != nil {
		if errors.Is(err, store.ErrInvalidMuscleGroup) || errors.Is(err, store.ErrTitleRequired) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateExercise applies a partial update; absent fields are untouched.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	var patch domain.ExercisePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.Update(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrInvalidMuscleGroup) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update exercise")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteExercise requests removal; the change-event stream drops the row
// from the store.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	if err := s.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete exercise")
		return
	}

	c.Status(http.StatusNoContent)
}

// FavoriteRequest sets an exercise's favorite flag.
type FavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// ToggleFavorite sets the favorite flag via a single-field partial update.
func (h *ExerciseHandler) ToggleFavorite(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.ToggleFavorite(c.Request.Context(), id, req.Favorite)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update exercise")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// RefreshExercises re-fetches the full list; the manual recovery path.
func (h *ExerciseHandler) RefreshExercises(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}

	if err := s.Refresh(c.Request.Context()); err != nil {
		abortWithError(c, http.StatusBadGateway, "Refresh failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// SelectExercise marks an exercise as shown in the detail pane.
func (h *ExerciseHandler) SelectExercise(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	s.Select(id)
	if c.Query("edit") == "true" {
		s.StartEdit()
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// ClearSelection clears the detail pane selection and edit mode.
func (h *ExerciseHandler) ClearSelection(c *gin.Context) {
	s, ok := h.exerciseStore(c)
	if !ok {
		return
	}
	s.ClearSelection()
	c.Status(http.StatusNoContent)
}

// --- Attachment endpoints ---

// UploadURLRequest asks for a presigned PUT URL for a demo video.
type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ConfirmUploadRequest records a completed upload's object key.
type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// RequestVideoUploadURL returns a presigned PUT URL for an exercise's demo video.
func (h *ExerciseHandler) RequestVideoUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	uploadURL, objectKey, err := h.attachments.RequestUploadURL(c.Request.Context(), userID, id, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL, "objectKey": objectKey})
}

// ConfirmVideoUpload records the uploaded object on the exercise row.
func (h *ExerciseHandler) ConfirmVideoUpload(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.attachments.ConfirmUpload(c.Request.Context(), userID, id, req.ObjectKey)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to confirm upload")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// RemoveVideo deletes the stored demo video and clears the object key.
func (h *ExerciseHandler) RemoveVideo(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	if err := h.attachments.RemoveAttachment(c.Request.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound), errors.Is(err, service.ErrNoAttachment):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to remove video")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetVideoDownloadURL returns a presigned GET URL for the demo video.
func (h *ExerciseHandler) GetVideoDownloadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	url, err := h.attachments.DownloadURL(c.Request.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNoAttachment):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
