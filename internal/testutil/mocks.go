package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/websocket"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[uuid.UUID]*domain.User)}
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.ID] = user
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// GetByVerifyCode retrieves a user by verification code
func (m *MockUserRepository) GetByVerifyCode(_ context.Context, code string) (*domain.User, error) {
	for _, user := range m.Users {
		if user.VerifyCode != nil && *user.VerifyCode == code {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, existing := range m.Users {
		if existing.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.Users[user.ID] = user
	return user, nil
}

// Update updates an existing user
func (m *MockUserRepository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := m.Users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for id, existing := range m.Users {
		if id != user.ID && existing.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	user.UpdatedAt = time.Now()
	m.Users[user.ID] = user
	return user, nil
}

// Delete removes a user
func (m *MockUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.Users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.Users, id)
	return nil
}

// MockWorkspaceRepository is a mock implementation of
// domain.WorkspaceRepository. Create also records the owner in Members
// to mirror the transactional insert of the real repository.
type MockWorkspaceRepository struct {
	Workspaces map[uuid.UUID]*domain.Workspace
	Members    *MockMembershipRepository
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository(members *MockMembershipRepository) *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces: make(map[uuid.UUID]*domain.Workspace),
		Members:    members,
	}
}

// Create creates a workspace and the creator's membership
func (m *MockWorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	if workspace.ID == uuid.Nil {
		workspace.ID = uuid.New()
	}
	workspace.CreatedAt = time.Now()
	workspace.UpdatedAt = workspace.CreatedAt
	m.Workspaces[workspace.ID] = workspace
	if m.Members != nil {
		_ = m.Members.Add(ctx, workspace.ID, workspace.OwnerID)
	}
	return workspace, nil
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// ListOwnedBy lists workspaces owned by a user
func (m *MockWorkspaceRepository) ListOwnedBy(_ context.Context, userID uuid.UUID) ([]*domain.Workspace, error) {
	var out []*domain.Workspace
	for _, ws := range m.Workspaces {
		if ws.OwnerID == userID {
			out = append(out, ws)
		}
	}
	return out, nil
}

// ListByIDs lists workspaces matching the given IDs
func (m *MockWorkspaceRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Workspace, error) {
	var out []*domain.Workspace
	for _, id := range ids {
		if ws, ok := m.Workspaces[id]; ok {
			out = append(out, ws)
		}
	}
	return out, nil
}

// Update applies a partial update to a workspace
func (m *MockWorkspaceRepository) Update(_ context.Context, id uuid.UUID, upd domain.WorkspaceUpdate) (*domain.Workspace, error) {
	ws, ok := m.Workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	if upd.Name != nil {
		ws.Name = *upd.Name
	}
	if upd.Description != nil {
		ws.Description = *upd.Description
	}
	if upd.IsPrivate != nil {
		ws.IsPrivate = *upd.IsPrivate
	}
	if upd.IsActive != nil {
		ws.IsActive = *upd.IsActive
	}
	if upd.MemberLimit != nil {
		ws.MemberLimit = upd.MemberLimit
	}
	if upd.Image != nil {
		ws.Image = upd.Image
	}
	ws.UpdatedAt = time.Now()
	return ws, nil
}

// Delete removes a workspace
func (m *MockWorkspaceRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.Workspaces[id]; !ok {
		return domain.ErrWorkspaceNotFound
	}
	delete(m.Workspaces, id)
	return nil
}

// GetParent implements domain.ParentStore
func (m *MockWorkspaceRepository) GetParent(ctx context.Context, id uuid.UUID) (*domain.ParentRef, error) {
	ws, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ParentRef{ID: ws.ID, Name: ws.Name, OwnerID: ws.OwnerID}, nil
}

// MockChallengeRepository is a mock implementation of
// domain.ChallengeRepository
type MockChallengeRepository struct {
	Challenges map[uuid.UUID]*domain.Challenge
	Members    *MockMembershipRepository
}

// NewMockChallengeRepository creates a new MockChallengeRepository
func NewMockChallengeRepository(members *MockMembershipRepository) *MockChallengeRepository {
	return &MockChallengeRepository{
		Challenges: make(map[uuid.UUID]*domain.Challenge),
		Members:    members,
	}
}

// Create creates a challenge and the creator's membership
func (m *MockChallengeRepository) Create(ctx context.Context, challenge *domain.Challenge) (*domain.Challenge, error) {
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	challenge.CreatedAt = time.Now()
	challenge.UpdatedAt = challenge.CreatedAt
	m.Challenges[challenge.ID] = challenge
	if m.Members != nil {
		_ = m.Members.Add(ctx, challenge.ID, challenge.OwnerID)
	}
	return challenge, nil
}

// GetByID retrieves a challenge by ID
func (m *MockChallengeRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Challenge, error) {
	if ch, ok := m.Challenges[id]; ok {
		return ch, nil
	}
	return nil, domain.ErrChallengeNotFound
}

// ListByWorkspace lists challenges in a workspace
func (m *MockChallengeRepository) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]*domain.Challenge, error) {
	var out []*domain.Challenge
	for _, ch := range m.Challenges {
		if ch.WorkspaceID == workspaceID {
			out = append(out, ch)
		}
	}
	return out, nil
}

// ListOwnedBy lists challenges owned by a user
func (m *MockChallengeRepository) ListOwnedBy(_ context.Context, userID uuid.UUID) ([]*domain.Challenge, error) {
	var out []*domain.Challenge
	for _, ch := range m.Challenges {
		if ch.OwnerID == userID {
			out = append(out, ch)
		}
	}
	return out, nil
}

// ListByIDs lists challenges matching the given IDs
func (m *MockChallengeRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Challenge, error) {
	var out []*domain.Challenge
	for _, id := range ids {
		if ch, ok := m.Challenges[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Update applies a partial update to a challenge
func (m *MockChallengeRepository) Update(_ context.Context, id uuid.UUID, upd domain.ChallengeUpdate) (*domain.Challenge, error) {
	ch, ok := m.Challenges[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	if upd.Name != nil {
		ch.Name = *upd.Name
	}
	if upd.Description != nil {
		ch.Description = *upd.Description
	}
	if upd.StartDate != nil {
		ch.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		ch.EndDate = *upd.EndDate
	}
	if upd.IsActive != nil {
		ch.IsActive = *upd.IsActive
	}
	if upd.MemberLimit != nil {
		ch.MemberLimit = upd.MemberLimit
	}
	if upd.Image != nil {
		ch.Image = upd.Image
	}
	ch.UpdatedAt = time.Now()
	return ch, nil
}

// Delete removes a challenge
func (m *MockChallengeRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.Challenges[id]; !ok {
		return domain.ErrChallengeNotFound
	}
	delete(m.Challenges, id)
	return nil
}

// GetParent implements domain.ParentStore
func (m *MockChallengeRepository) GetParent(ctx context.Context, id uuid.UUID) (*domain.ParentRef, error) {
	ch, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ParentRef{ID: ch.ID, Name: ch.Name, OwnerID: ch.OwnerID}, nil
}

// MockActivityRepository is a mock implementation of
// domain.ActivityRepository
type MockActivityRepository struct {
	Activities map[uuid.UUID]*domain.Activity
}

// NewMockActivityRepository creates a new MockActivityRepository
func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{Activities: make(map[uuid.UUID]*domain.Activity)}
}

// Create creates an activity
func (m *MockActivityRepository) Create(_ context.Context, activity *domain.Activity) (*domain.Activity, error) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	activity.CreatedAt = time.Now()
	activity.UpdatedAt = activity.CreatedAt
	m.Activities[activity.ID] = activity
	return activity, nil
}

// GetByID retrieves an activity by ID
func (m *MockActivityRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Activity, error) {
	if a, ok := m.Activities[id]; ok {
		return a, nil
	}
	return nil, domain.ErrActivityNotFound
}

// ListByChallenge lists activities logged against a challenge
func (m *MockActivityRepository) ListByChallenge(_ context.Context, challengeID uuid.UUID) ([]*domain.Activity, error) {
	var out []*domain.Activity
	for _, a := range m.Activities {
		if a.ChallengeID == challengeID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Update applies a partial update to an activity
func (m *MockActivityRepository) Update(_ context.Context, id uuid.UUID, upd domain.ActivityUpdate) (*domain.Activity, error) {
	a, ok := m.Activities[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Description != nil {
		a.Description = upd.Description
	}
	if upd.Type != nil {
		a.Type = *upd.Type
	}
	if upd.Duration != nil {
		a.Duration = upd.Duration
	}
	if upd.Image != nil {
		a.Image = *upd.Image
	}
	a.UpdatedAt = time.Now()
	return a, nil
}

// Delete removes an activity
func (m *MockActivityRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.Activities[id]; !ok {
		return domain.ErrActivityNotFound
	}
	delete(m.Activities, id)
	return nil
}

type memberKey struct {
	Parent uuid.UUID
	User   uuid.UUID
}

// MockMembershipRepository is a mock implementation of
// domain.MembershipRepository
type MockMembershipRepository struct {
	Users      *MockUserRepository
	membership map[memberKey]struct{}
}

// NewMockMembershipRepository creates a new MockMembershipRepository.
// users may be nil when member listing is not exercised.
func NewMockMembershipRepository(users *MockUserRepository) *MockMembershipRepository {
	return &MockMembershipRepository{
		Users:      users,
		membership: make(map[memberKey]struct{}),
	}
}

// Add records a membership
func (m *MockMembershipRepository) Add(_ context.Context, parentID, userID uuid.UUID) error {
	key := memberKey{parentID, userID}
	if _, ok := m.membership[key]; ok {
		return domain.ErrAlreadyMember
	}
	m.membership[key] = struct{}{}
	return nil
}

// Remove deletes a membership
func (m *MockMembershipRepository) Remove(_ context.Context, parentID, userID uuid.UUID) error {
	key := memberKey{parentID, userID}
	if _, ok := m.membership[key]; !ok {
		return domain.ErrNotAMember
	}
	delete(m.membership, key)
	return nil
}

// Exists reports whether a membership exists
func (m *MockMembershipRepository) Exists(_ context.Context, parentID, userID uuid.UUID) (bool, error) {
	_, ok := m.membership[memberKey{parentID, userID}]
	return ok, nil
}

// ListMembers lists the users belonging to a parent
func (m *MockMembershipRepository) ListMembers(_ context.Context, parentID uuid.UUID) ([]*domain.User, error) {
	var out []*domain.User
	for key := range m.membership {
		if key.Parent != parentID {
			continue
		}
		if m.Users != nil {
			if user, ok := m.Users.Users[key.User]; ok {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

// ListJoined lists the parent IDs a user belongs to
func (m *MockMembershipRepository) ListJoined(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for key := range m.membership {
		if key.User == userID {
			out = append(out, key.Parent)
		}
	}
	return out, nil
}

// MockImageRepository is an in-memory implementation of
// storage.ImageRepository
type MockImageRepository struct {
	Objects map[string][]byte
	mu      sync.Mutex
}

// NewMockImageRepository creates a new MockImageRepository
func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{Objects: make(map[string][]byte)}
}

// Upload stores an object in memory
func (m *MockImageRepository) Upload(_ context.Context, objectPath string, data io.Reader, _ string, _ int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf.Bytes()
	return objectPath, nil
}

// Delete removes an object
func (m *MockImageRepository) Delete(_ context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a stable fake URL
func (m *MockImageRepository) GeneratePresignedURL(_ context.Context, objectPath string, _ time.Duration) (string, error) {
	return "https://storage.test/" + objectPath, nil
}

// MockMailer records verification mail sends
type MockMailer struct {
	mu    sync.Mutex
	Sends []MailSend
	Err   error
}

// MailSend is one recorded SendVerification call
type MailSend struct {
	To   string
	Code string
}

// SendVerification records the send
func (m *MockMailer) SendVerification(to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sends = append(m.Sends, MailSend{To: to, Code: code})
	return nil
}

// Sent returns a copy of the recorded sends
func (m *MockMailer) Sent() []MailSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MailSend, len(m.Sends))
	copy(out, m.Sends)
	return out
}

// RecordingPublisher records published events for assertions
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	WorkspaceID uuid.UUID
	Event       websocket.Event
}

// Publish records the event
func (p *RecordingPublisher) Publish(workspaceID uuid.UUID, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// Published returns a copy of the recorded events
func (p *RecordingPublisher) Published() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.Events))
	copy(out, p.Events)
	return out
}
