package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/middleware"
	"github.com/stride-app/stride-backend/internal/service"
)

// ActivityHandler handles activity HTTP requests
type ActivityHandler struct {
	activityService *service.ActivityService
	imageService    *service.ImageService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *service.ActivityService, imageService *service.ImageService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		imageService:    imageService,
	}
}

// UpdateActivityRequest represents the update activity request body
type UpdateActivityRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Duration    *int32  `json:"duration"`
}

// ActivityResponse represents an activity in API responses
type ActivityResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Type        string    `json:"type"`
	Duration    *int32    `json:"duration,omitempty"`
	OwnerID     uuid.UUID `json:"ownerId"`
	ChallengeID uuid.UUID `json:"challengeId"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// CreateActivity handles POST /api/v1/challenges/:id/activities
// The request is a multipart form: activities are always logged with a
// photo, so the image file travels with the other fields. A missing
// file is reported alongside any other invalid fields.
func (h *ActivityHandler) CreateActivity(c echo.Context) error {
	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid challenge ID")
	}

	input := service.CreateActivityInput{
		Title: c.FormValue("title"),
		Type:  c.FormValue("type"),
	}
	if v := c.FormValue("description"); v != "" {
		input.Description = &v
	}
	if v := c.FormValue("duration"); v != "" {
		minutes, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "duration", Message: "Duration must be a whole number of minutes"},
			})
		}
		d := int32(minutes)
		input.Duration = &d
	}

	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			log.Error().Err(err).Msg("Failed to open uploaded file")
			return NewInternalError(c, "Failed to process file")
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read uploaded file")
			return NewInternalError(c, "Failed to read file")
		}
		input.Image = data
		input.ImageName = file.Filename
	}

	activity, err := h.activityService.Create(c.Request().Context(), middleware.GetUserID(c), challengeID, input)
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return NewNotFoundError(c, "Challenge not found")
		}
		if resp := validationFailedResponse(c, err); resp != nil {
			return resp
		}
		if resp := imageErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("Failed to create activity")
		return NewInternalError(c, "Failed to create activity")
	}

	log.Info().
		Str("activity_id", activity.ID.String()).
		Str("challenge_id", challengeID.String()).
		Msg("Activity created")
	return c.JSON(http.StatusCreated, h.toResponse(c, activity))
}

// GetActivities handles GET /api/v1/challenges/:id/activities
func (h *ActivityHandler) GetActivities(c echo.Context) error {
	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid challenge ID")
	}

	activities, err := h.activityService.ListByChallenge(c.Request().Context(), challengeID)
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return NewNotFoundError(c, "Challenge not found")
		}
		log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("Failed to list activities")
		return NewInternalError(c, "Failed to list activities")
	}

	response := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		response[i] = h.toResponse(c, a)
	}
	return c.JSON(http.StatusOK, response)
}

// GetActivity handles GET /api/v1/activities/:id
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid activity ID")
	}

	activity, err := h.activityService.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			return NewNotFoundError(c, "Activity not found")
		}
		log.Error().Err(err).Str("activity_id", id.String()).Msg("Failed to get activity")
		return NewInternalError(c, "Failed to get activity")
	}

	return c.JSON(http.StatusOK, h.toResponse(c, activity))
}

// UpdateActivity handles PUT /api/v1/activities/:id
// The ownership middleware has already resolved the activity
func (h *ActivityHandler) UpdateActivity(c echo.Context) error {
	activity := middleware.GetActivity(c)
	if activity == nil {
		return NewInternalError(c, "Activity not resolved")
	}

	var req UpdateActivityRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	updated, err := h.activityService.Update(c.Request().Context(), activity.ID, domain.ActivityUpdate{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Duration:    req.Duration,
	})
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			return NewNotFoundError(c, "Activity not found")
		}
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "title", Message: "Title is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "title", Message: "Title must be 255 characters or less"},
			})
		}
		if errors.Is(err, domain.ErrDescriptionTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "description", Message: "Description must be 2000 characters or less"},
			})
		}
		log.Error().Err(err).Str("activity_id", activity.ID.String()).Msg("Failed to update activity")
		return NewInternalError(c, "Failed to update activity")
	}

	log.Info().Str("activity_id", updated.ID.String()).Msg("Activity updated")
	return c.JSON(http.StatusOK, h.toResponse(c, updated))
}

// DeleteActivity handles DELETE /api/v1/activities/:id
func (h *ActivityHandler) DeleteActivity(c echo.Context) error {
	activity := middleware.GetActivity(c)
	if activity == nil {
		return NewInternalError(c, "Activity not resolved")
	}

	if err := h.activityService.Delete(c.Request().Context(), activity.ID); err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			return NewNotFoundError(c, "Activity not found")
		}
		log.Error().Err(err).Str("activity_id", activity.ID.String()).Msg("Failed to delete activity")
		return NewInternalError(c, "Failed to delete activity")
	}

	log.Info().Str("activity_id", activity.ID.String()).Msg("Activity deleted")
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /api/v1/activities/:id/image
func (h *ActivityHandler) UploadImage(c echo.Context) error {
	activity := middleware.GetActivity(c)
	if activity == nil {
		return NewInternalError(c, "Activity not resolved")
	}

	data, filename, err := readImageFile(c, "image")
	if err != nil {
		return err
	}

	updated, err := h.activityService.UploadImage(c.Request().Context(), activity.ID, data, filename)
	if err != nil {
		if resp := imageErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("activity_id", activity.ID.String()).Msg("Failed to upload activity image")
		return NewInternalError(c, "Failed to upload image")
	}

	log.Info().Str("activity_id", updated.ID.String()).Msg("Activity image updated")
	return c.JSON(http.StatusOK, h.toResponse(c, updated))
}

func (h *ActivityHandler) toResponse(c echo.Context, a *domain.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Type:        a.Type,
		Duration:    a.Duration,
		OwnerID:     a.OwnerID,
		ChallengeID: a.ChallengeID,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
	if a.Image != "" {
		resp.Image = h.imageService.ResolveURL(c.Request().Context(), a.Image)
	}
	return resp
}
