package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Challenge is a time-boxed goal inside a workspace. Ownership is
// independent of workspace ownership.
type Challenge struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsActive    bool      `json:"isActive"`
	MemberLimit *int32    `json:"memberLimit"`
	Image       *string   `json:"image"`
	OwnerID     uuid.UUID `json:"ownerId"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChallengeUpdate carries a partial update. Nil fields are left
// untouched.
type ChallengeUpdate struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    *bool
	MemberLimit *int32
	Image       *string
}

// ChallengeRepository defines the interface for challenge persistence
// operations. Create inserts the challenge and the creator's
// membership record in a single transaction.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *Challenge) (*Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Challenge, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*Challenge, error)
	ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*Challenge, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Challenge, error)
	Update(ctx context.Context, id uuid.UUID, upd ChallengeUpdate) (*Challenge, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
