package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stride-app/stride-backend/internal/domain"
	"github.com/stride-app/stride-backend/internal/middleware"
	"github.com/stride-app/stride-backend/internal/service"
)

// MembershipHandler handles join, leave and member-listing requests for
// one joinable entity. One instance is registered per entity kind.
type MembershipHandler struct {
	memberships *service.MembershipService
	userService *service.UserService
	entityLabel string
}

// NewMembershipHandler creates a new MembershipHandler. entityLabel
// appears in error messages ("Workspace not found").
func NewMembershipHandler(memberships *service.MembershipService, userService *service.UserService, entityLabel string) *MembershipHandler {
	return &MembershipHandler{
		memberships: memberships,
		userService: userService,
		entityLabel: entityLabel,
	}
}

// Join handles POST /api/v1/<entity>/:id/join
func (h *MembershipHandler) Join(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid "+h.entityLabel+" ID")
	}

	userID := middleware.GetUserID(c)
	if err := h.memberships.Join(c.Request().Context(), id, userID); err != nil {
		switch {
		case isParentNotFound(err):
			return NewNotFoundError(c, h.entityLabel+" not found")
		case errors.Is(err, domain.ErrAlreadyMember):
			return NewConflictError(c, "You are already a member")
		}
		log.Error().Err(err).Str("parent_id", id.String()).Str("user_id", userID.String()).Msg("Failed to join")
		return NewInternalError(c, "Failed to join")
	}

	log.Info().Str("parent_id", id.String()).Str("user_id", userID.String()).Msg("Member joined")
	return c.JSON(http.StatusOK, map[string]string{"message": "Joined successfully"})
}

// Leave handles POST /api/v1/<entity>/:id/leave
func (h *MembershipHandler) Leave(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid "+h.entityLabel+" ID")
	}

	userID := middleware.GetUserID(c)
	if err := h.memberships.Leave(c.Request().Context(), id, userID); err != nil {
		switch {
		case isParentNotFound(err):
			return NewNotFoundError(c, h.entityLabel+" not found")
		case errors.Is(err, domain.ErrNotAMember):
			return NewConflictError(c, "You are not a member")
		case errors.Is(err, domain.ErrOwnerCannotLeave):
			return NewForbiddenError(c, "The owner cannot leave")
		}
		log.Error().Err(err).Str("parent_id", id.String()).Str("user_id", userID.String()).Msg("Failed to leave")
		return NewInternalError(c, "Failed to leave")
	}

	log.Info().Str("parent_id", id.String()).Str("user_id", userID.String()).Msg("Member left")
	return c.JSON(http.StatusOK, map[string]string{"message": "Left successfully"})
}

// Members handles GET /api/v1/<entity>/:id/members
func (h *MembershipHandler) Members(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewBadRequestError(c, "Invalid "+h.entityLabel+" ID")
	}

	members, err := h.memberships.Members(c.Request().Context(), id)
	if err != nil {
		if isParentNotFound(err) {
			return NewNotFoundError(c, h.entityLabel+" not found")
		}
		log.Error().Err(err).Str("parent_id", id.String()).Msg("Failed to list members")
		return NewInternalError(c, "Failed to list members")
	}

	response := make([]UserResponse, len(members))
	for i, m := range members {
		response[i] = toUserResponse(m, h.userService.ResolveAvatarURL(c.Request().Context(), m))
	}
	return c.JSON(http.StatusOK, response)
}

func isParentNotFound(err error) bool {
	return errors.Is(err, domain.ErrWorkspaceNotFound) ||
		errors.Is(err, domain.ErrChallengeNotFound) ||
		errors.Is(err, domain.ErrNotFound)
}
