package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Workspace is the top-level tenant entity. The owner is set at
// creation from the authenticated caller and never changes.
type Workspace struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPrivate   bool      `json:"isPrivate"`
	IsActive    bool      `json:"isActive"`
	MemberLimit *int32    `json:"memberLimit"`
	Image       *string   `json:"image"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkspaceUpdate carries a partial update. Nil fields are left
// untouched.
type WorkspaceUpdate struct {
	Name        *string
	Description *string
	IsPrivate   *bool
	IsActive    *bool
	MemberLimit *int32
	Image       *string
}

// WorkspaceRepository defines the interface for workspace persistence
// operations. Create inserts the workspace and the creator's
// membership record in a single transaction.
type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *Workspace) (*Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error)
	ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*Workspace, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Workspace, error)
	Update(ctx context.Context, id uuid.UUID, upd WorkspaceUpdate) (*Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
