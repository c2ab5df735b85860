package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/websocket"
)

// CreateActivityInput carries the fields of an activity creation
// request. Activities are always logged with a photo, so Image holds
// the raw upload bytes and ImageName its original filename.
type CreateActivityInput struct {
	Title       string
	Description *string
	Type        string
	Duration    *int32
	Image       []byte
	ImageName   string
}

// ActivityService handles activity CRUD inside a challenge
type ActivityService struct {
	activities domain.ActivityRepository
	challenges domain.ChallengeRepository
	images     *ImageService
	publisher  websocket.EventPublisher
}

// NewActivityService creates a new ActivityService
func NewActivityService(
	activities domain.ActivityRepository,
	challenges domain.ChallengeRepository,
	images *ImageService,
	publisher websocket.EventPublisher,
) *ActivityService {
	return &ActivityService{
		activities: activities,
		challenges: challenges,
		images:     images,
		publisher:  publisher,
	}
}

// Create logs an activity against the challenge. The challenge must
// exist; the caller is recorded as the activity's owner. The image is
// mandatory and its variants are stored before the row is inserted, so
// a failed insert leaves no orphaned row.
func (s *ActivityService) Create(ctx context.Context, ownerID, challengeID uuid.UUID, input CreateActivityInput) (*domain.Activity, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	activityType := strings.TrimSpace(input.Type)

	var fields []domain.FieldError
	fields = appendNameErrors(fields, "title", title)
	if activityType == "" {
		fields = append(fields, domain.FieldError{Field: "type", Message: "Type is required"})
	}
	if len(input.Image) == 0 {
		fields = append(fields, domain.FieldError{Field: "image", Message: "Image file is required"})
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationFailed{Fields: fields}
	}

	activityID := uuid.New()
	objectPath, err := s.images.ProcessAndUpload(ctx, "activities", activityID, input.Image, input.ImageName)
	if err != nil {
		return nil, err
	}

	activity, err := s.activities.Create(ctx, &domain.Activity{
		ID:          activityID,
		Title:       title,
		Description: input.Description,
		Image:       objectPath,
		Type:        activityType,
		Duration:    input.Duration,
		OwnerID:     ownerID,
		ChallengeID: challengeID,
	})
	if err != nil {
		s.images.DeleteAllVariants(ctx, objectPath)
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(challenge.WorkspaceID, websocket.ActivityCreated(activity))
	}
	return activity, nil
}

// Get returns a single activity
func (s *ActivityService) Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	return s.activities.GetByID(ctx, id)
}

// ListByChallenge returns all activities logged against a challenge
func (s *ActivityService) ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*domain.Activity, error) {
	if _, err := s.challenges.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}
	return s.activities.ListByChallenge(ctx, challengeID)
}

// Update applies a partial update to an activity
func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, upd domain.ActivityUpdate) (*domain.Activity, error) {
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if err := validateName(title); err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if upd.Description != nil && len(*upd.Description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	return s.activities.Update(ctx, id, upd)
}

// Delete removes an activity and its stored image variants
func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.activities.Delete(ctx, id); err != nil {
		return err
	}

	if activity.Image != "" {
		s.images.DeleteAllVariants(ctx, activity.Image)
	}
	return nil
}

// UploadImage stores a new activity image and updates the record
func (s *ActivityService) UploadImage(ctx context.Context, id uuid.UUID, data []byte, filename string) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath, err := s.images.ProcessAndUpload(ctx, "activities", id, data, filename)
	if err != nil {
		return nil, err
	}

	updated, err := s.activities.Update(ctx, id, domain.ActivityUpdate{Image: &objectPath})
	if err != nil {
		s.images.DeleteAllVariants(ctx, objectPath)
		return nil, err
	}

	if activity.Image != "" {
		s.images.DeleteAllVariants(ctx, activity.Image)
	}
	return updated, nil
}
