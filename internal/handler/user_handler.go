package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/middleware"
	"github.com/stride-app/stride-backend/internal/service"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateUserRequest represents the profile update request body
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid user ID")
	}

	user, err := h.userService.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not found")
		}
		log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to get user")
		return NewInternalError(c, "Failed to get user")
	}

	return c.JSON(http.StatusOK, h.toResponse(c, user))
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}
	return c.JSON(http.StatusOK, h.toResponse(c, user))
}

// UpdateUser handles PUT /api/v1/users/edit/:id
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	user, err := h.userService.Update(c.Request().Context(), middleware.GetUserID(c), id, service.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return NewForbiddenError(c, "You can only edit your own account")
		case errors.Is(err, domain.ErrUserNotFound):
			return NewNotFoundError(c, "User not found")
		case errors.Is(err, domain.ErrEmailTaken):
			return NewConflictError(c, "An account with this email already exists")
		case errors.Is(err, domain.ErrNameRequired):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		case errors.Is(err, domain.ErrNameTooLong):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		case errors.Is(err, service.ErrInvalidEmail):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "email", Message: "A valid email address is required"},
			})
		case errors.Is(err, service.ErrPasswordTooShort):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "password", Message: "Password must be at least 6 characters"},
			})
		}
		log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to update user")
		return NewInternalError(c, "Failed to update user")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User updated")
	return c.JSON(http.StatusOK, h.toResponse(c, user))
}

// DeleteUser handles DELETE /api/v1/users/delete/:id
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid user ID")
	}

	if err := h.userService.Delete(c.Request().Context(), middleware.GetUserID(c), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return NewForbiddenError(c, "You can only delete your own account")
		case errors.Is(err, domain.ErrUserNotFound):
			return NewNotFoundError(c, "User not found")
		}
		log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to delete user")
		return NewInternalError(c, "Failed to delete user")
	}

	log.Info().Str("user_id", id.String()).Msg("User deleted")
	return c.NoContent(http.StatusNoContent)
}

// UploadAvatar handles POST /api/v1/users/:id/avatar
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid user ID")
	}

	data, filename, err := readImageFile(c, "avatar")
	if err != nil {
		return err
	}

	user, err := h.userService.UploadAvatar(c.Request().Context(), middleware.GetUserID(c), id, data, filename)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return NewForbiddenError(c, "You can only change your own avatar")
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not found")
		}
		if resp := imageErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to upload avatar")
		return NewInternalError(c, "Failed to upload avatar")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Avatar updated")
	return c.JSON(http.StatusOK, h.toResponse(c, user))
}

func (h *UserHandler) toResponse(c echo.Context, user *domain.User) UserResponse {
	return toUserResponse(user, h.userService.ResolveAvatarURL(c.Request().Context(), user))
}

func toUserResponse(user *domain.User, avatarURL string) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Avatar:    avatarURL,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

// readImageFile extracts an uploaded file from the named multipart form
// field. Returns an already-written error response on failure.
func readImageFile(c echo.Context, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", NewValidationError(c, "No file provided", []ValidationError{
			{Field: field, Message: "Image file is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return nil, "", NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return nil, "", NewInternalError(c, "Failed to read file")
	}

	return data, file.Filename, nil
}

// imageErrorResponse maps image validation errors to responses.
// Returns nil for errors that are not image validation failures.
func imageErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrImageTooLarge):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "image", Message: "File too large. Maximum size is 5MB"},
		})
	case errors.Is(err, service.ErrInvalidFormat):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "image", Message: "Invalid format. Supported: jpg, jpeg, png"},
		})
	case errors.Is(err, service.ErrImageTooSmall):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "image", Message: "Image too small. Minimum 50x50 pixels"},
		})
	case errors.Is(err, service.ErrInvalidImageData):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "image", Message: "Invalid image data"},
		})
	case errors.Is(err, service.ErrImageStorageNotConfigured):
		return NewServiceUnavailableError(c, "Image uploads are disabled (storage not configured)")
	}
	return nil
}
