package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/websocket"
)

// MemberEvent is the payload broadcast for member.joined and
// member.left events.
type MemberEvent struct {
	UserID     uuid.UUID `json:"userId"`
	UserName   string    `json:"userName"`
	ParentID   uuid.UUID `json:"parentId"`
	ParentType string    `json:"parentType"`
	ParentName string    `json:"parentName"`
}

// MembershipService implements the join/leave/members operations shared
// by every joinable entity. One instance exists per join table; the
// behavioral differences (owner leave rules, event routing) are
// configuration, not separate code paths.
type MembershipService struct {
	entity           string
	parents          domain.ParentStore
	members          domain.MembershipRepository
	users            domain.UserRepository
	publisher        websocket.EventPublisher
	workspaceOf      func(ctx context.Context, parent *domain.ParentRef) (uuid.UUID, error)
	ownerCannotLeave bool
}

// NewWorkspaceMembershipService creates the membership service for
// workspaces. Workspace owners cannot leave their own workspace.
func NewWorkspaceMembershipService(
	parents domain.ParentStore,
	members domain.MembershipRepository,
	users domain.UserRepository,
	publisher websocket.EventPublisher,
) *MembershipService {
	return &MembershipService{
		entity:    "workspace",
		parents:   parents,
		members:   members,
		users:     users,
		publisher: publisher,
		workspaceOf: func(_ context.Context, parent *domain.ParentRef) (uuid.UUID, error) {
			return parent.ID, nil
		},
		ownerCannotLeave: true,
	}
}

// NewChallengeMembershipService creates the membership service for
// challenges. Events route to the challenge's enclosing workspace.
func NewChallengeMembershipService(
	parents domain.ParentStore,
	members domain.MembershipRepository,
	users domain.UserRepository,
	challenges domain.ChallengeRepository,
	publisher websocket.EventPublisher,
) *MembershipService {
	return &MembershipService{
		entity:    "challenge",
		parents:   parents,
		members:   members,
		users:     users,
		publisher: publisher,
		workspaceOf: func(ctx context.Context, parent *domain.ParentRef) (uuid.UUID, error) {
			ch, err := challenges.GetByID(ctx, parent.ID)
			if err != nil {
				return uuid.Nil, err
			}
			return ch.WorkspaceID, nil
		},
	}
}

// Join adds the user to the parent entity's member list
func (s *MembershipService) Join(ctx context.Context, parentID, userID uuid.UUID) error {
	parent, err := s.parents.GetParent(ctx, parentID)
	if err != nil {
		return err
	}

	exists, err := s.members.Exists(ctx, parentID, userID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyMember
	}

	if err := s.members.Add(ctx, parentID, userID); err != nil {
		return err
	}

	s.publishMemberEvent(ctx, websocket.MemberJoined, parent, userID)
	return nil
}

// Leave removes the user from the parent entity's member list. Owners
// cannot leave entities configured with the owner-stays rule.
func (s *MembershipService) Leave(ctx context.Context, parentID, userID uuid.UUID) error {
	parent, err := s.parents.GetParent(ctx, parentID)
	if err != nil {
		return err
	}

	if s.ownerCannotLeave && parent.OwnerID == userID {
		return domain.ErrOwnerCannotLeave
	}

	if err := s.members.Remove(ctx, parentID, userID); err != nil {
		return err
	}

	s.publishMemberEvent(ctx, websocket.MemberLeft, parent, userID)
	return nil
}

// Members returns the users currently belonging to the parent entity
func (s *MembershipService) Members(ctx context.Context, parentID uuid.UUID) ([]*domain.User, error) {
	if _, err := s.parents.GetParent(ctx, parentID); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, parentID)
}

// IsMember reports whether the user belongs to the parent entity
func (s *MembershipService) IsMember(ctx context.Context, parentID, userID uuid.UUID) (bool, error) {
	return s.members.Exists(ctx, parentID, userID)
}

func (s *MembershipService) publishMemberEvent(ctx context.Context, build func(interface{}) websocket.Event, parent *domain.ParentRef, userID uuid.UUID) {
	if s.publisher == nil {
		return
	}

	workspaceID, err := s.workspaceOf(ctx, parent)
	if err != nil {
		log.Warn().Err(err).
			Str("parent_id", parent.ID.String()).
			Msg("Failed to resolve workspace for member event")
		return
	}

	payload := MemberEvent{
		UserID:     userID,
		ParentID:   parent.ID,
		ParentType: s.entity,
		ParentName: parent.Name,
	}
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		payload.UserName = user.Name
	}

	s.publisher.Publish(workspaceID, build(payload))
}
