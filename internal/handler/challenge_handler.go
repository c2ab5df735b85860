package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/middleware"
	"github.com/stride-app/stride-backend/internal/service"
)

// ChallengeHandler handles challenge HTTP requests
type ChallengeHandler struct {
	challengeService *service.ChallengeService
	imageService     *service.ImageService
}

// NewChallengeHandler creates a new ChallengeHandler
func NewChallengeHandler(challengeService *service.ChallengeService, imageService *service.ImageService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		imageService:     imageService,
	}
}

// CreateChallengeRequest represents the create challenge request body
type CreateChallengeRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	MemberLimit *int32     `json:"memberLimit"`
}

// UpdateChallengeRequest represents the update challenge request body
type UpdateChallengeRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	IsActive    *bool      `json:"isActive"`
	MemberLimit *int32     `json:"memberLimit"`
}

// ChallengeResponse represents a challenge in API responses
type ChallengeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	IsActive    bool      `json:"isActive"`
	MemberLimit *int32    `json:"memberLimit,omitempty"`
	Image       string    `json:"image,omitempty"`
	OwnerID     uuid.UUID `json:"ownerId"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// CreateChallenge handles POST /api/v1/workspaces/:id/challenges
func (h *ChallengeHandler) CreateChallenge(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid workspace ID")
	}

	var req CreateChallengeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	input := service.CreateChallengeInput{
		Name:        req.Name,
		Description: req.Description,
		MemberLimit: req.MemberLimit,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		input.EndDate = *req.EndDate
	}

	challenge, err := h.challengeService.Create(c.Request().Context(), middleware.GetUserID(c), workspaceID, input)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		if resp := validationFailedResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("workspace_id", workspaceID.String()).Msg("Failed to create challenge")
		return NewInternalError(c, "Failed to create challenge")
	}

	log.Info().
		Str("challenge_id", challenge.ID.String()).
		Str("workspace_id", workspaceID.String()).
		Str("name", challenge.Name).
		Msg("Challenge created")
	return c.JSON(http.StatusCreated, h.toResponse(c, challenge))
}

// GetChallenges handles GET /api/v1/workspaces/:id/challenges
func (h *ChallengeHandler) GetChallenges(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid workspace ID")
	}

	challenges, err := h.challengeService.ListByWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", workspaceID.String()).Msg("Failed to list challenges")
		return NewInternalError(c, "Failed to list challenges")
	}

	response := make([]ChallengeResponse, len(challenges))
	for i, ch := range challenges {
		response[i] = h.toResponse(c, ch)
	}
	return c.JSON(http.StatusOK, response)
}

// GetChallenge handles GET /api/v1/challenges/:id
func (h *ChallengeHandler) GetChallenge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid challenge ID")
	}

	challenge, err := h.challengeService.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return NewNotFoundError(c, "Challenge not found")
		}
		log.Error().Err(err).Str("challenge_id", id.String()).Msg("Failed to get challenge")
		return NewInternalError(c, "Failed to get challenge")
	}

	return c.JSON(http.StatusOK, h.toResponse(c, challenge))
}

// UpdateChallenge handles PUT /api/v1/challenges/:id
// The ownership middleware has already resolved the challenge
func (h *ChallengeHandler) UpdateChallenge(c echo.Context) error {
	challenge := middleware.GetChallenge(c)
	if challenge == nil {
		return NewInternalError(c, "Challenge not resolved")
	}

	var req UpdateChallengeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	updated, err := h.challengeService.Update(c.Request().Context(), challenge.ID, domain.ChallengeUpdate{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive,
		MemberLimit: req.MemberLimit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return NewNotFoundError(c, "Challenge not found")
		}
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "endDate", Message: "End date must be after start date"},
			})
		}
		if resp := nameValidationResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("challenge_id", challenge.ID.String()).Msg("Failed to update challenge")
		return NewInternalError(c, "Failed to update challenge")
	}

	log.Info().Str("challenge_id", updated.ID.String()).Msg("Challenge updated")
	return c.JSON(http.StatusOK, h.toResponse(c, updated))
}

// DeleteChallenge handles DELETE /api/v1/challenges/:id
func (h *ChallengeHandler) DeleteChallenge(c echo.Context) error {
	challenge := middleware.GetChallenge(c)
	if challenge == nil {
		return NewInternalError(c, "Challenge not resolved")
	}

	if err := h.challengeService.Delete(c.Request().Context(), challenge.ID); err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return NewNotFoundError(c, "Challenge not found")
		}
		log.Error().Err(err).Str("challenge_id", challenge.ID.String()).Msg("Failed to delete challenge")
		return NewInternalError(c, "Failed to delete challenge")
	}

	log.Info().Str("challenge_id", challenge.ID.String()).Msg("Challenge deleted")
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /api/v1/challenges/:id/image
func (h *ChallengeHandler) UploadImage(c echo.Context) error {
	challenge := middleware.GetChallenge(c)
	if challenge == nil {
		return NewInternalError(c, "Challenge not resolved")
	}

	data, filename, err := readImageFile(c, "image")
	if err != nil {
		return err
	}

	updated, err := h.challengeService.UploadImage(c.Request().Context(), challenge.ID, data, filename)
	if err != nil {
		if resp := imageErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("challenge_id", challenge.ID.String()).Msg("Failed to upload challenge image")
		return NewInternalError(c, "Failed to upload image")
	}

	log.Info().Str("challenge_id", updated.ID.String()).Msg("Challenge image updated")
	return c.JSON(http.StatusOK, h.toResponse(c, updated))
}

func (h *ChallengeHandler) toResponse(c echo.Context, ch *domain.Challenge) ChallengeResponse {
	resp := ChallengeResponse{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		StartDate:   ch.StartDate.Format(time.RFC3339),
		EndDate:     ch.EndDate.Format(time.RFC3339),
		IsActive:    ch.IsActive,
		MemberLimit: ch.MemberLimit,
		OwnerID:     ch.OwnerID,
		WorkspaceID: ch.WorkspaceID,
		CreatedAt:   ch.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   ch.UpdatedAt.Format(time.RFC3339),
	}
	if ch.Image != nil {
		resp.Image = h.imageService.ResolveURL(c.Request().Context(), *ch.Image)
	}
	return resp
}
