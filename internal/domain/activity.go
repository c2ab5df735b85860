package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activity is a logged entry against a challenge. OwnerID records who
// logged it; authorization for mutations resolves through the parent
// challenge's owner.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Image       string    `json:"image"`
	Type        string    `json:"type"`
	Duration    *int32    `json:"duration"`
	OwnerID     uuid.UUID `json:"ownerId"`
	ChallengeID uuid.UUID `json:"challengeId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ActivityUpdate carries a partial update. Nil fields are left
// untouched.
type ActivityUpdate struct {
	Title       *string
	Description *string
	Type        *string
	Duration    *int32
	Image       *string
}

// ActivityRepository defines the interface for activity persistence
// operations
type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) (*Activity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*Activity, error)
	Update(ctx context.Context, id uuid.UUID, upd ActivityUpdate) (*Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
