package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/testutil"
	"github.com/stride-app/stride-backend/internal/token"
)

func authTestContext(e *echo.Echo, header string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(token.NewManager("secret"), testutil.NewMockUserRepository())
	c, _ := authTestContext(e, "")

	err := m.Authenticate()(okHandler)(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_BadHeaderFormat(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(token.NewManager("secret"), testutil.NewMockUserRepository())
	c, _ := authTestContext(e, "Basic abc123")

	err := m.Authenticate()(okHandler)(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(token.NewManager("secret"), testutil.NewMockUserRepository())
	c, _ := authTestContext(e, "Bearer not.a.token")

	err := m.Authenticate()(okHandler)(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_DeletedAccount(t *testing.T) {
	e := echo.New()
	tokens := token.NewManager("secret")
	users := testutil.NewMockUserRepository()
	m := NewAuthMiddleware(tokens, users)

	// Valid token, but the account no longer exists
	signed, err := tokens.Create(uuid.New(), "gone@example.com")
	require.NoError(t, err)

	c, _ := authTestContext(e, "Bearer "+signed)
	mwErr := m.Authenticate()(okHandler)(c)
	require.Error(t, mwErr)
	httpErr, ok := mwErr.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_Success(t *testing.T) {
	e := echo.New()
	tokens := token.NewManager("secret")
	users := testutil.NewMockUserRepository()
	m := NewAuthMiddleware(tokens, users)

	user := &domain.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Verified: true}
	users.AddUser(user)

	signed, err := tokens.Create(user.ID, user.Email)
	require.NoError(t, err)

	c, rec := authTestContext(e, "Bearer "+signed)
	handler := m.Authenticate()(func(c echo.Context) error {
		assert.Equal(t, user.ID, GetUserID(c))
		loaded := GetUser(c)
		require.NotNil(t, loaded)
		assert.Equal(t, "alice@example.com", loaded.Email)
		claims := GetClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, user.ID, claims.UserID)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserID_Unauthenticated(t *testing.T) {
	e := echo.New()
	c, _ := authTestContext(e, "")
	assert.Equal(t, uuid.Nil, GetUserID(c))
	assert.Nil(t, GetUser(c))
}
