package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/websocket"
)

// CreateChallengeInput carries the fields of a challenge creation
// request
type CreateChallengeInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	MemberLimit *int32
}

// ChallengeService handles challenge CRUD inside a workspace
type ChallengeService struct {
	challenges domain.ChallengeRepository
	workspaces domain.WorkspaceRepository
	images     *ImageService
	publisher  websocket.EventPublisher
}

// NewChallengeService creates a new ChallengeService
func NewChallengeService(
	challenges domain.ChallengeRepository,
	workspaces domain.WorkspaceRepository,
	images *ImageService,
	publisher websocket.EventPublisher,
) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		workspaces: workspaces,
		images:     images,
		publisher:  publisher,
	}
}

// Create creates a challenge inside the workspace, owned by the
// caller. The creator is recorded as a member in the same transaction
// as the insert.
func (s *ChallengeService) Create(ctx context.Context, ownerID, workspaceID uuid.UUID, input CreateChallengeInput) (*domain.Challenge, error) {
	// The workspace must exist before anything is written
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)

	var fields []domain.FieldError
	fields = appendNameErrors(fields, "name", name)
	if description == "" {
		fields = append(fields, domain.FieldError{Field: "description", Message: "Description is required"})
	} else if len(description) > domain.MaxDescriptionLength {
		fields = append(fields, domain.FieldError{Field: "description", Message: "Description must be 2000 characters or less"})
	}
	if input.StartDate.IsZero() {
		fields = append(fields, domain.FieldError{Field: "startDate", Message: "Start date is required"})
	}
	if input.EndDate.IsZero() {
		fields = append(fields, domain.FieldError{Field: "endDate", Message: "End date is required"})
	} else if !input.StartDate.IsZero() && input.EndDate.Before(input.StartDate) {
		fields = append(fields, domain.FieldError{Field: "endDate", Message: "End date must be after start date"})
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationFailed{Fields: fields}
	}

	challenge, err := s.challenges.Create(ctx, &domain.Challenge{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    true,
		MemberLimit: input.MemberLimit,
		OwnerID:     ownerID,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		return nil, err
	}

	s.publish(workspaceID, websocket.ChallengeCreated(challenge))
	return challenge, nil
}

// Get returns a single challenge
func (s *ChallengeService) Get(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	return s.challenges.GetByID(ctx, id)
}

// ListByWorkspace returns all challenges in a workspace
func (s *ChallengeService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*domain.Challenge, error) {
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.challenges.ListByWorkspace(ctx, workspaceID)
}

// Update applies a partial update to a challenge
func (s *ChallengeService) Update(ctx context.Context, id uuid.UUID, upd domain.ChallengeUpdate) (*domain.Challenge, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if upd.Description != nil && len(*upd.Description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	current, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	start, end := current.StartDate, current.EndDate
	if upd.StartDate != nil {
		start = *upd.StartDate
	}
	if upd.EndDate != nil {
		end = *upd.EndDate
	}
	if !end.IsZero() && !start.IsZero() && end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}

	challenge, err := s.challenges.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.publish(challenge.WorkspaceID, websocket.ChallengeUpdated(challenge))
	return challenge, nil
}

// Delete removes a challenge. Member rows and nested activities cascade
// at the storage layer.
func (s *ChallengeService) Delete(ctx context.Context, id uuid.UUID) error {
	challenge, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.challenges.Delete(ctx, id); err != nil {
		return err
	}

	if challenge.Image != nil {
		s.images.DeleteAllVariants(ctx, *challenge.Image)
	}

	s.publish(challenge.WorkspaceID, websocket.ChallengeDeleted(challenge))
	return nil
}

// UploadImage stores a new challenge image and updates the record
func (s *ChallengeService) UploadImage(ctx context.Context, id uuid.UUID, data []byte, filename string) (*domain.Challenge, error) {
	challenge, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath, err := s.images.ProcessAndUpload(ctx, "challenges", id, data, filename)
	if err != nil {
		return nil, err
	}

	updated, err := s.challenges.Update(ctx, id, domain.ChallengeUpdate{Image: &objectPath})
	if err != nil {
		s.images.DeleteAllVariants(ctx, objectPath)
		return nil, err
	}

	if challenge.Image != nil {
		s.images.DeleteAllVariants(ctx, *challenge.Image)
	}
	return updated, nil
}

func (s *ChallengeService) publish(workspaceID uuid.UUID, event websocket.Event) {
	if s.publisher != nil {
		s.publisher.Publish(workspaceID, event)
	}
}
