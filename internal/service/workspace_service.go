package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/stride-app/stride-backend/internal/domain"
)

// CreateWorkspaceInput carries the fields of a workspace creation
// request
type CreateWorkspaceInput struct {
	Name        string
	Description string
	IsPrivate   bool
	MemberLimit *int32
}

// WorkspaceService handles workspace CRUD and listing
type WorkspaceService struct {
	workspaces domain.WorkspaceRepository
	members    domain.MembershipRepository
	images     *ImageService
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(workspaces domain.WorkspaceRepository, members domain.MembershipRepository, images *ImageService) *WorkspaceService {
	return &WorkspaceService{
		workspaces: workspaces,
		members:    members,
		images:     images,
	}
}

// Create creates a workspace owned by the caller. The creator is
// recorded as a member in the same transaction as the insert.
func (s *WorkspaceService) Create(ctx context.Context, ownerID uuid.UUID, input CreateWorkspaceInput) (*domain.Workspace, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)

	var fields []domain.FieldError
	fields = appendNameErrors(fields, "name", name)
	if description == "" {
		fields = append(fields, domain.FieldError{Field: "description", Message: "Description is required"})
	} else if len(description) > domain.MaxDescriptionLength {
		fields = append(fields, domain.FieldError{Field: "description", Message: "Description must be 2000 characters or less"})
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationFailed{Fields: fields}
	}

	return s.workspaces.Create(ctx, &domain.Workspace{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		IsPrivate:   input.IsPrivate,
		IsActive:    true,
		MemberLimit: input.MemberLimit,
		OwnerID:     ownerID,
	})
}

// Get returns a single workspace
func (s *WorkspaceService) Get(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	return s.workspaces.GetByID(ctx, id)
}

// ListMine returns the workspaces the user owns followed by the ones
// the user joined but does not own
func (s *WorkspaceService) ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Workspace, error) {
	owned, err := s.workspaces.ListOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	joinedIDs, err := s.members.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownedSet := make(map[uuid.UUID]struct{}, len(owned))
	for _, w := range owned {
		ownedSet[w.ID] = struct{}{}
	}

	var joinedOnly []uuid.UUID
	for _, id := range joinedIDs {
		if _, ok := ownedSet[id]; !ok {
			joinedOnly = append(joinedOnly, id)
		}
	}

	if len(joinedOnly) == 0 {
		return owned, nil
	}

	joined, err := s.workspaces.ListByIDs(ctx, joinedOnly)
	if err != nil {
		return nil, err
	}

	return append(owned, joined...), nil
}

// Update applies a partial update to a workspace
func (s *WorkspaceService) Update(ctx context.Context, id uuid.UUID, upd domain.WorkspaceUpdate) (*domain.Workspace, error) {
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

	return s.workspaces.Update(ctx, id, upd)
}

// Delete removes a workspace. Member rows and nested challenges cascade
// at the storage layer; the stored image variants are cleaned up best
// effort.
func (s *WorkspaceService) Delete(ctx context.Context, id uuid.UUID) error {
	workspace, err := s.workspaces.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.workspaces.Delete(ctx, id); err != nil {
		return err
	}

	if workspace.Image != nil {
		s.images.DeleteAllVariants(ctx, *workspace.Image)
	}
	return nil
}

// UploadImage stores a new workspace image and updates the record
func (s *WorkspaceService) UploadImage(ctx context.Context, id uuid.UUID, data []byte, filename string) (*domain.Workspace, error) {
	workspace, err := s.workspaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath, err := s.images.ProcessAndUpload(ctx, "workspaces", id, data, filename)
	if err != nil {
		return nil, err
	}

	updated, err := s.workspaces.Update(ctx, id, domain.WorkspaceUpdate{Image: &objectPath})
	if err != nil {
		s.images.DeleteAllVariants(ctx, objectPath)
		return nil, err
	}

	if workspace.Image != nil {
		s.images.DeleteAllVariants(ctx, *workspace.Image)
	}
	return updated, nil
}

func validateName(name string) error {
	if name == "" {
		return domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	return nil
}

// appendNameErrors accumulates required/length errors for a name-like
// field under the given field name. Used by the create paths, which
// report every invalid field in one response.
func appendNameErrors(fields []domain.FieldError, field, value string) []domain.FieldError {
	switch {
	case value == "":
		fields = append(fields, domain.FieldError{Field: field, Message: titleCase(field) + " is required"})
	case len(value) > domain.MaxNameLength:
		fields = append(fields, domain.FieldError{Field: field, Message: titleCase(field) + " must be 255 characters or less"})
	}
	return fields
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
