package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/middleware"
	"github.com/stride-app/stride-backend/internal/service"
	"github.com/stride-app/stride-backend/internal/testutil"
	"github.com/stride-app/stride-backend/internal/token"
)

// env bundles the mocks and services handler tests run against
type env struct {
	users      *testutil.MockUserRepository
	workspaces *testutil.MockWorkspaceRepository
	challenges *testutil.MockChallengeRepository
	activities *testutil.MockActivityRepository
	wsMembers  *testutil.MockMembershipRepository
	chMembers  *testutil.MockMembershipRepository
	publisher  *testutil.RecordingPublisher
	tokens     *token.Manager

	authService      *service.AuthService
	userService      *service.UserService
	workspaceService *service.WorkspaceService
	challengeService *service.ChallengeService
	activityService  *service.ActivityService
	imageService     *service.ImageService
	wsMembership     *service.MembershipService
	chMembership     *service.MembershipService
}

func newEnv() *env {
	users := testutil.NewMockUserRepository()
	wsMembers := testutil.NewMockMembershipRepository(users)
	chMembers := testutil.NewMockMembershipRepository(users)
	workspaces := testutil.NewMockWorkspaceRepository(wsMembers)
	challenges := testutil.NewMockChallengeRepository(chMembers)
	activities := testutil.NewMockActivityRepository()
	publisher := &testutil.RecordingPublisher{}
	tokens := token.NewManager("test-secret")
	images := service.NewImageService(testutil.NewMockImageRepository())

	return &env{
		users:      users,
		workspaces: workspaces,
		challenges: challenges,
		activities: activities,
		wsMembers:  wsMembers,
		chMembers:  chMembers,
		publisher:  publisher,
		tokens:     tokens,

		authService:      service.NewAuthService(users, tokens, nil, nil),
		userService:      service.NewUserService(users, images),
		workspaceService: service.NewWorkspaceService(workspaces, wsMembers, images),
		challengeService: service.NewChallengeService(challenges, workspaces, images, publisher),
		activityService:  service.NewActivityService(activities, challenges, images, publisher),
		imageService:     images,
		wsMembership:     service.NewWorkspaceMembershipService(workspaces, wsMembers, users, publisher),
		chMembership:     service.NewChallengeMembershipService(challenges, chMembers, users, challenges, publisher),
	}
}

// addUser registers a user directly in the mock repository
func (e *env) addUser(name, email string) *domain.User {
	u := &domain.User{ID: uuid.New(), Name: name, Email: email, Verified: true}
	e.users.AddUser(u)
	return u
}

// createWorkspace makes a valid workspace through the service layer
func (e *env) createWorkspace(t *testing.T, owner *domain.User, name string) *domain.Workspace {
	t.Helper()
	w, err := e.workspaceService.Create(context.Background(), owner.ID, service.CreateWorkspaceInput{
		Name:        name,
		Description: name + " description",
	})
	if err != nil {
		t.Fatalf("Create workspace failed: %v", err)
	}
	return w
}

// createChallenge makes a valid challenge through the service layer
func (e *env) createChallenge(t *testing.T, owner *domain.User, workspaceID uuid.UUID, name string) *domain.Challenge {
	t.Helper()
	start := time.Now()
	ch, err := e.challengeService.Create(context.Background(), owner.ID, workspaceID, service.CreateChallengeInput{
		Name:        name,
		Description: name + " description",
		StartDate:   start,
		EndDate:     start.AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("Create challenge failed: %v", err)
	}
	return ch
}

// createActivity logs a valid activity through the service layer
func (e *env) createActivity(t *testing.T, owner *domain.User, challengeID uuid.UUID, title string) *domain.Activity {
	t.Helper()
	a, err := e.activityService.Create(context.Background(), owner.ID, challengeID, service.CreateActivityInput{
		Title:     title,
		Type:      "exercise",
		Image:     makePNG(t, 100, 100),
		ImageName: "proof.png",
	})
	if err != nil {
		t.Fatalf("Create activity failed: %v", err)
	}
	return a
}

// makePNG renders a small PNG for upload tests
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// newJSONContext builds an echo context carrying a JSON body
func newJSONContext(t *testing.T, e *echo.Echo, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// newMultipartContext builds an echo context carrying a multipart form.
// fileData may be nil to send a form without a file part.
func newMultipartContext(t *testing.T, e *echo.Echo, method, path string, fields map[string]string, fileField, filename string, fileData []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if fileData != nil {
		fw, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// setupAuthContext places an authenticated user in the request context,
// mirroring what the auth middleware does
func setupAuthContext(c echo.Context, user *domain.User) {
	ctx := context.WithValue(c.Request().Context(), middleware.UserKey, user)
	c.SetRequest(c.Request().WithContext(ctx))
}

// setupWorkspaceContext stashes a resolved workspace the way the
// ownership middleware does
func setupWorkspaceContext(c echo.Context, w *domain.Workspace) {
	ctx := context.WithValue(c.Request().Context(), middleware.WorkspaceKey, w)
	c.SetRequest(c.Request().WithContext(ctx))
}

// setupChallengeContext stashes a resolved challenge
func setupChallengeContext(c echo.Context, ch *domain.Challenge) {
	ctx := context.WithValue(c.Request().Context(), middleware.ChallengeKey, ch)
	c.SetRequest(c.Request().WithContext(ctx))
}

// setupActivityContext stashes a resolved activity
func setupActivityContext(c echo.Context, a *domain.Activity) {
	ctx := context.WithValue(c.Request().Context(), middleware.ActivityKey, a)
	c.SetRequest(c.Request().WithContext(ctx))
}

// decodeProblem unmarshals an RFC 7807 response body
func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var p ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	return p
}
