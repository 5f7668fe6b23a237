package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fittrack/internal/domain"
	"fittrack/internal/repository"
	"fittrack/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrNoAttachment     = errors.New("exercise has no demo video")
)

// AttachmentService manages optional demo videos attached to exercises.
// Uploads go straight to object storage via presigned URLs; only the object
// key is stored on the exercise row.
type AttachmentService interface {
	RequestUploadURL(ctx context.Context, userID, exerciseID primitive.ObjectID, contentType string) (uploadURL, objectKey string, err error)
	ConfirmUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
	DownloadURL(ctx context.Context, userID, exerciseID primitive.ObjectID) (string, error)
	RemoveAttachment(ctx context.Context, userID, exerciseID primitive.ObjectID) error
}

type attachmentService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewAttachmentService creates a new instance of attachmentService.
func NewAttachmentService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) AttachmentService {
	return &attachmentService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// RequestUploadURL verifies ownership and returns a presigned PUT URL plus
// the object key the client must confirm once the upload completes.
func (s *attachmentService) RequestUploadURL(ctx context.Context, userID, exerciseID primitive.ObjectID, contentType string) (string, string, error) {
	if err := s.checkOwnership(ctx, userID, exerciseID); err != nil {
		return "", "", err
	}

	objectKey := fmt.Sprintf("exercises/%s/%s/%s", userID.Hex(), exerciseID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}

	return uploadURL, objectKey, nil
}

// ConfirmUpload records the uploaded object's key on the exercise row,
// replacing (and deleting) any previous attachment.
func (s *attachmentService) ConfirmUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	if objectKey == "" {
		return nil, errors.New("object key is required")
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrExerciseNotFound
	}

	oldKey := existing.VideoObjectKey

	updated, err := s.exerciseRepo.Update(ctx, exerciseID, userID, domain.ExerciseUpdate{
		VideoObjectKey: &objectKey,
	})
	if err != nil {
		return nil, err
	}

	// Best effort; an orphaned object is preferable to a failed confirm.
	if oldKey != "" && oldKey != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, oldKey)
	}

	return updated, nil
}

// DownloadURL returns a presigned GET URL for the exercise's demo video.
func (s *attachmentService) DownloadURL(ctx context.Context, userID, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	if exercise.UserID != userID {
		return "", ErrExerciseNotFound
	}
	if exercise.VideoObjectKey == "" {
		return "", ErrNoAttachment
	}

	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.VideoObjectKey, time.Hour)
}

// RemoveAttachment deletes the stored object and clears the key.
func (s *attachmentService) RemoveAttachment(ctx context.Context, userID, exerciseID primitive.ObjectID) error {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if exercise.UserID != userID {
		return ErrExerciseNotFound
	}
	if exercise.VideoObjectKey == "" {
		return ErrNoAttachment
	}

	if err := s.fileStorage.DeleteObject(ctx, exercise.VideoObjectKey); err != nil {
		return err
	}

	empty := ""
	_, err = s.exerciseRepo.Update(ctx, exerciseID, userID, domain.ExerciseUpdate{
		VideoObjectKey: &empty,
	})
	return err
}

// checkOwnership confirms the exercise exists and belongs to the user.
func (s *attachmentService) checkOwnership(ctx context.Context, userID, exerciseID primitive.ObjectID) error {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if exercise.UserID != userID {
		// Owner-scoped like every other read; another user's exercise is
		// indistinguishable from a missing one.
		return ErrExerciseNotFound
	}
	return nil
}
