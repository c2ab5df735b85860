package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/testutil"
)

type membershipFixture struct {
	users      *testutil.MockUserRepository
	workspaces *testutil.MockWorkspaceRepository
	members    *testutil.MockMembershipRepository
	publisher  *testutil.RecordingPublisher
	svc        *MembershipService
	owner      *domain.User
	workspace  *domain.Workspace
}

func newMembershipFixture(t *testing.T) *membershipFixture {
	t.Helper()

	users := testutil.NewMockUserRepository()
	members := testutil.NewMockMembershipRepository(users)
	workspaces := testutil.NewMockWorkspaceRepository(members)
	publisher := &testutil.RecordingPublisher{}

	owner := &domain.User{ID: uuid.New(), Name: "Owner", Email: "owner@example.com"}
	users.AddUser(owner)

	workspace, err := workspaces.Create(context.Background(), &domain.Workspace{
		Name:    "Climbing Club",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)

	return &membershipFixture{
		users:      users,
		workspaces: workspaces,
		members:    members,
		publisher:  publisher,
		svc:        NewWorkspaceMembershipService(workspaces, members, users, publisher),
		owner:      owner,
		workspace:  workspace,
	}
}

func (f *membershipFixture) addUser(name, email string) *domain.User {
	u := &domain.User{ID: uuid.New(), Name: name, Email: email}
	f.users.AddUser(u)
	return u
}

func TestJoin_Success(t *testing.T) {
	f := newMembershipFixture(t)
	joiner := f.addUser("Joiner", "joiner@example.com")

	require.NoError(t, f.svc.Join(context.Background(), f.workspace.ID, joiner.ID))

	isMember, err := f.members.Exists(context.Background(), f.workspace.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	events := f.publisher.Published()
	require.Len(t, events, 1)
	assert.Equal(t, f.workspace.ID, events[0].WorkspaceID)
	assert.Equal(t, "member.joined", events[0].Event.Type)

	payload, ok := events[0].Event.Payload.(MemberEvent)
	require.True(t, ok)
	assert.Equal(t, joiner.ID, payload.UserID)
	assert.Equal(t, "Joiner", payload.UserName)
	assert.Equal(t, "workspace", payload.ParentType)
}

func TestJoin_Twice(t *testing.T) {
	f := newMembershipFixture(t)
	joiner := f.addUser("Joiner", "joiner@example.com")

	require.NoError(t, f.svc.Join(context.Background(), f.workspace.ID, joiner.ID))
	assert.ErrorIs(t, f.svc.Join(context.Background(), f.workspace.ID, joiner.ID), domain.ErrAlreadyMember)
}

func TestJoin_UnknownParent(t *testing.T) {
	f := newMembershipFixture(t)
	joiner := f.addUser("Joiner", "joiner@example.com")

	err := f.svc.Join(context.Background(), uuid.New(), joiner.ID)
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestLeave_Success(t *testing.T) {
	f := newMembershipFixture(t)
	joiner := f.addUser("Joiner", "joiner@example.com")
	require.NoError(t, f.svc.Join(context.Background(), f.workspace.ID, joiner.ID))

	require.NoError(t, f.svc.Leave(context.Background(), f.workspace.ID, joiner.ID))

	isMember, err := f.members.Exists(context.Background(), f.workspace.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	events := f.publisher.Published()
	require.Len(t, events, 2)
	assert.Equal(t, "member.left", events[1].Event.Type)
}

func TestLeave_NotAMember(t *testing.T) {
	f := newMembershipFixture(t)
	stranger := f.addUser("Stranger", "stranger@example.com")

	assert.ErrorIs(t, f.svc.Leave(context.Background(), f.workspace.ID, stranger.ID), domain.ErrNotAMember)
}

func TestLeave_OwnerCannotLeaveWorkspace(t *testing.T) {
	f := newMembershipFixture(t)

	err := f.svc.Leave(context.Background(), f.workspace.ID, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrOwnerCannotLeave)

	// The owner's membership record is untouched
	isMember, err := f.members.Exists(context.Background(), f.workspace.ID, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestChallengeOwnerMayLeave(t *testing.T) {
	users := testutil.NewMockUserRepository()
	chMembers := testutil.NewMockMembershipRepository(users)
	challenges := testutil.NewMockChallengeRepository(chMembers)
	publisher := &testutil.RecordingPublisher{}

	owner := &domain.User{ID: uuid.New(), Name: "Owner", Email: "owner@example.com"}
	users.AddUser(owner)

	workspaceID := uuid.New()
	challenge, err := challenges.Create(context.Background(), &domain.Challenge{
		Name:        "30 Day Streak",
		OwnerID:     owner.ID,
		WorkspaceID: workspaceID,
	})
	require.NoError(t, err)

	svc := NewChallengeMembershipService(challenges, chMembers, users, challenges, publisher)

	require.NoError(t, svc.Leave(context.Background(), challenge.ID, owner.ID))

	// The event routes to the enclosing workspace, not the challenge
	events := publisher.Published()
	require.Len(t, events, 1)
	assert.Equal(t, workspaceID, events[0].WorkspaceID)
	assert.Equal(t, "member.left", events[0].Event.Type)
}

func TestMembers(t *testing.T) {
	f := newMembershipFixture(t)
	joiner := f.addUser("Joiner", "joiner@example.com")
	require.NoError(t, f.svc.Join(context.Background(), f.workspace.ID, joiner.ID))

	members, err := f.svc.Members(context.Background(), f.workspace.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2) // owner + joiner

	_, err = f.svc.Members(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}
