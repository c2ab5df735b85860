package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/testutil"
)

type challengeFixture struct {
	workspaces *testutil.MockWorkspaceRepository
	challenges *testutil.MockChallengeRepository
	publisher  *testutil.RecordingPublisher
	svc        *ChallengeService
	workspace  *domain.Workspace
	ownerID    uuid.UUID
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()

	wsMembers := testutil.NewMockMembershipRepository(nil)
	chMembers := testutil.NewMockMembershipRepository(nil)
	workspaces := testutil.NewMockWorkspaceRepository(wsMembers)
	challenges := testutil.NewMockChallengeRepository(chMembers)
	publisher := &testutil.RecordingPublisher{}
	images := NewImageService(testutil.NewMockImageRepository())

	ownerID := uuid.New()
	workspace, err := workspaces.Create(context.Background(), &domain.Workspace{
		Name:    "Book Club",
		OwnerID: ownerID,
	})
	require.NoError(t, err)

	return &challengeFixture{
		workspaces: workspaces,
		challenges: challenges,
		publisher:  publisher,
		svc:        NewChallengeService(challenges, workspaces, images, publisher),
		workspace:  workspace,
		ownerID:    ownerID,
	}
}

func (f *challengeFixture) validInput(name string) CreateChallengeInput {
	start := time.Now()
	return CreateChallengeInput{
		Name:        name,
		Description: "a month of " + name,
		StartDate:   start,
		EndDate:     start.AddDate(0, 1, 0),
	}
}

func TestCreateChallenge_Success(t *testing.T) {
	f := newChallengeFixture(t)

	ch, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, f.validInput("Read 5 Books"))
	require.NoError(t, err)
	assert.Equal(t, "Read 5 Books", ch.Name)
	assert.Equal(t, f.workspace.ID, ch.WorkspaceID)
	assert.Equal(t, f.ownerID, ch.OwnerID)
	assert.True(t, ch.IsActive)

	// Creator is a member of the challenge
	isMember, err := f.challenges.Members.Exists(context.Background(), ch.ID, f.ownerID)
	require.NoError(t, err)
	assert.True(t, isMember)

	events := f.publisher.Published()
	require.Len(t, events, 1)
	assert.Equal(t, "challenge.created", events[0].Event.Type)
	assert.Equal(t, f.workspace.ID, events[0].WorkspaceID)
}

func TestCreateChallenge_WorkspaceMissing(t *testing.T) {
	f := newChallengeFixture(t)

	_, err := f.svc.Create(context.Background(), f.ownerID, uuid.New(), f.validInput("Orphan"))
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	assert.Empty(t, f.publisher.Published())
}

func TestCreateChallenge_InvalidDateRange(t *testing.T) {
	f := newChallengeFixture(t)

	input := f.validInput("Backwards")
	input.EndDate = input.StartDate.Add(-time.Hour)

	_, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, input)
	assert.Equal(t, []string{"endDate"}, fieldNames(t, err))
}

func TestCreateChallenge_ReportsAllMissingFields(t *testing.T) {
	f := newChallengeFixture(t)

	_, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, CreateChallengeInput{})
	assert.ElementsMatch(t, []string{"name", "description", "startDate", "endDate"}, fieldNames(t, err))

	// Nothing was persisted and nothing was announced
	list, listErr := f.challenges.ListByWorkspace(context.Background(), f.workspace.ID)
	require.NoError(t, listErr)
	assert.Empty(t, list)
	assert.Empty(t, f.publisher.Published())
}

func TestUpdateChallenge_PublishesEvent(t *testing.T) {
	f := newChallengeFixture(t)

	ch, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, f.validInput("Before"))
	require.NoError(t, err)

	newName := "After"
	updated, err := f.svc.Update(context.Background(), ch.ID, domain.ChallengeUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)

	events := f.publisher.Published()
	require.Len(t, events, 2)
	assert.Equal(t, "challenge.updated", events[1].Event.Type)
}

func TestUpdateChallenge_RejectsInvertedDates(t *testing.T) {
	f := newChallengeFixture(t)
	start := time.Now()
	end := start.AddDate(0, 1, 0)

	input := f.validInput("Dated")
	input.StartDate = start
	input.EndDate = end

	ch, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, input)
	require.NoError(t, err)

	badEnd := start.Add(-time.Hour)
	_, err = f.svc.Update(context.Background(), ch.ID, domain.ChallengeUpdate{EndDate: &badEnd})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestDeleteChallenge_PublishesEvent(t *testing.T) {
	f := newChallengeFixture(t)

	ch, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, f.validInput("Doomed"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), ch.ID))

	_, err = f.challenges.GetByID(context.Background(), ch.ID)
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)

	events := f.publisher.Published()
	require.Len(t, events, 2)
	assert.Equal(t, "challenge.deleted", events[1].Event.Type)
}

func TestListByWorkspace(t *testing.T) {
	f := newChallengeFixture(t)

	_, err := f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, f.validInput("One"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.ownerID, f.workspace.ID, f.validInput("Two"))
	require.NoError(t, err)

	list, err := f.svc.ListByWorkspace(context.Background(), f.workspace.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.ListByWorkspace(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}
