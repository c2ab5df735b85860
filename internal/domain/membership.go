package domain

import (
	"context"

	"github.com/google/uuid"
)

// MembershipRepository manages the M-N relation between users and a
// parent entity (workspace or challenge). One implementation exists
// per join table. The storage layer enforces (user, parent)
// uniqueness; Exists is the application-level fast path for friendly
// errors.
type MembershipRepository interface {
	Add(ctx context.Context, parentID, userID uuid.UUID) error
	Remove(ctx context.Context, parentID, userID uuid.UUID) error
	Exists(ctx context.Context, parentID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, parentID uuid.UUID) ([]*User, error)
	ListJoined(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// ParentRef is the resolved identity of a joinable parent entity.
type ParentRef struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
}

// ParentStore resolves a joinable parent entity by id. Implementations
// return ErrWorkspaceNotFound or ErrChallengeNotFound when absent.
type ParentStore interface {
	GetParent(ctx context.Context, id uuid.UUID) (*ParentRef, error)
}
