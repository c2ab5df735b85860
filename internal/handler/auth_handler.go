package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/service"
)

// AuthHandler handles registration, login and federated login requests
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/v1/users/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	user, token, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return NewConflictError(c, "An account with this email already exists")
		}
		if resp := validationFailedResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Msg("Failed to register user")
		return NewInternalError(c, "Failed to register")
	}

	log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("User registered")

	return c.JSON(http.StatusCreated, AuthResponse{
		User:  h.toUserResponse(c, user),
		Token: token,
	})
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	user, token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return NewUnauthorizedError(c, "Invalid email or password")
		}
		log.Error().Err(err).Msg("Failed to log in user")
		return NewInternalError(c, "Failed to log in")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User logged in")

	return c.JSON(http.StatusOK, AuthResponse{
		User:  h.toUserResponse(c, user),
		Token: token,
	})
}

// CheckUser handles GET /api/v1/users/checkuser
// Resolves the Authorization header when one is present and returns the
// matching account, or null when the session does not resolve. The
// endpoint never fails: clients call it to learn whether a stored
// session is still usable.
func (h *AuthHandler) CheckUser(c echo.Context) error {
	var tokenStr string
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		tokenStr = strings.TrimPrefix(auth, "Bearer ")
	}

	user := h.authService.ResolveToken(c.Request().Context(), tokenStr)
	if user == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"user": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": h.toUserResponse(c, user)})
}

// VerifyEmail handles GET /api/v1/users/verify-email
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	code := c.QueryParam("token")

	if err := h.authService.VerifyEmail(c.Request().Context(), code); err != nil {
		if errors.Is(err, domain.ErrInvalidVerifyCode) {
			return NewNotFoundError(c, "Invalid or expired verification link")
		}
		log.Error().Err(err).Msg("Failed to verify email")
		return NewInternalError(c, "Failed to verify email")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

// GoogleRequest handles GET /api/v1/auth/google/request
// Redirects the client to the Google consent page
func (h *AuthHandler) GoogleRequest(c echo.Context) error {
	url, err := h.authService.GoogleAuthURL(c.QueryParam("state"))
	if err != nil {
		return NewServiceUnavailableError(c, "Google login is not configured")
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles GET /api/v1/auth/google
// Exchanges the authorization code and signs the user in
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return NewBadRequestError(c, "Missing authorization code")
	}

	user, token, err := h.authService.GoogleLogin(c.Request().Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("Google login failed")
		return NewUnauthorizedError(c, "Google login failed")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User logged in via Google")

	return c.JSON(http.StatusOK, AuthResponse{
		User:  h.toUserResponse(c, user),
		Token: token,
	})
}

func (h *AuthHandler) toUserResponse(c echo.Context, user *domain.User) UserResponse {
	return toUserResponse(user, h.userService.ResolveAvatarURL(c.Request().Context(), user))
}
