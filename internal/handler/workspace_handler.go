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

// WorkspaceHandler handles workspace HTTP requests
type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
	imageService     *service.ImageService
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(workspaceService *service.WorkspaceService, imageService *service.ImageService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		imageService:     imageService,
	}
}

// CreateWorkspaceRequest represents the create workspace request body
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
	MemberLimit *int32 `json:"memberLimit"`
}

// UpdateWorkspaceRequest represents the update workspace request body
type UpdateWorkspaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPrivate   *bool   `json:"isPrivate"`
	IsActive    *bool   `json:"isActive"`
	MemberLimit *int32  `json:"memberLimit"`
}

// WorkspaceResponse represents a workspace in API responses
type WorkspaceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPrivate   bool      `json:"isPrivate"`
	IsActive    bool      `json:"isActive"`
	MemberLimit *int32    `json:"memberLimit,omitempty"`
	Image       string    `json:"image,omitempty"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// CreateWorkspace handles POST /api/v1/workspaces
func (h *WorkspaceHandler) CreateWorkspace(c echo.Context) error {
	var req CreateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	workspace, err := h.workspaceService.Create(c.Request().Context(), middleware.GetUserID(c), service.CreateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		MemberLimit: req.MemberLimit,
	})
	if err != nil {
		if resp := validationFailedResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Msg("Failed to create workspace")
		return NewInternalError(c, "Failed to create workspace")
	}

	log.Info().Str("workspace_id", workspace.ID.String()).Str("name", workspace.Name).Msg("Workspace created")
	return c.JSON(http.StatusCreated, h.toResponse(c, workspace))
}

// GetWorkspaces handles GET /api/v1/workspaces
// Returns the caller's owned workspaces followed by joined ones
func (h *WorkspaceHandler) GetWorkspaces(c echo.Context) error {
	workspaces, err := h.workspaceService.ListMine(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list workspaces")
		return NewInternalError(c, "Failed to list workspaces")
	}

	response := make([]WorkspaceResponse, len(workspaces))
	for i, w := range workspaces {
		response[i] = h.toResponse(c, w)
	}
	return c.JSON(http.StatusOK, response)
}

// GetWorkspace handles GET /api/v1/workspaces/:id
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid workspace ID")
	}

	workspace, err := h.workspaceService.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", id.String()).Msg("Failed to get workspace")
		return NewInternalError(c, "Failed to get workspace")
	}

	return c.JSON(http.StatusOK, h.toResponse(c, workspace))
}

// UpdateWorkspace handles PUT /api/v1/workspaces/:id
// The ownership middleware has already resolved the workspace
func (h *WorkspaceHandler) UpdateWorkspace(c echo.Context) error {
	workspace := middleware.GetWorkspace(c)
	if workspace == nil {
		return NewInternalError(c, "Workspace not resolved")
	}

	var req UpdateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(c, "Invalid request body")
	}

	updated, err := h.workspaceService.Update(c.Request().Context(), workspace.ID, domain.WorkspaceUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		IsActive:    req.IsActive,
		MemberLimit: req.MemberLimit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		if resp := nameValidationResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("workspace_id", workspace.ID.String()).Msg("Failed to update workspace")
		return NewInternalError(c, "Failed to update workspace")
	}

	log.Info().Str("workspace_id", updated.ID.String()).Msg("Workspace updated")
	return c.JSON(http.StatusOK, h.toResponse(c, updated))
}

// DeleteWorkspace handles DELETE /api/v1/workspaces/:id
func (h *WorkspaceHandler) DeleteWorkspace(c echo.Context) error {
	workspace := middleware.GetWorkspace(c)
	if workspace == nil {
		return NewInternalError(c, "Workspace not resolved")
	}

	if err := h.workspaceService.Delete(c.Request().Context(), workspace.ID); err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", workspace.ID.String()).Msg("Failed to delete workspace")
		return NewInternalError(c, "Failed to delete workspace")
	}

	log.Info().Str("workspace_id", workspace.ID.String()).Msg("Workspace deleted")
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /api/v1/workspaces/:id/image
func (h *WorkspaceHandler) UploadImage(c echo.Context) error {
	workspace := middleware.GetWorkspace(c)
	if workspace == nil {
		return NewInternalError(c, "Workspace not resolved")
	}

	data, filename, err := readImageFile(c, "image")
	if err != nil {
		return err
	}

	updated, err := h.workspaceService.UploadImage(c.Request().Context(), workspace.ID, data, filename)
	if err != nil {
		if resp := imageErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("workspace_id", workspace.ID.String()).Msg("Failed to upload workspace image")
		return NewInternalError(c, "Failed to upload image")
	}

	log.Info().Str("workspace_id", updated.ID.String()).Msg("Workspace image updated")
	return c.JSON(http.StatusOK, h.toResponse(c, updated))
}

func (h *WorkspaceHandler) toResponse(c echo.Context, w *domain.Workspace) WorkspaceResponse {
	resp := WorkspaceResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		IsPrivate:   w.IsPrivate,
		IsActive:    w.IsActive,
		MemberLimit: w.MemberLimit,
		OwnerID:     w.OwnerID,
		CreatedAt:   w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   w.UpdatedAt.Format(time.RFC3339),
	}
	if w.Image != nil {
		resp.Image = h.imageService.ResolveURL(c.Request().Context(), *w.Image)
	}
	return resp
}

// nameValidationResponse maps name and description validation errors
// to responses. Returns nil for other errors.
func nameValidationResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 2000 characters or less"},
		})
	}
	return nil
}
