package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stride-app/stride-backend/internal/domain"
)

const (
	// WorkspaceKey is the context key for the resolved workspace
	WorkspaceKey contextKey = "workspace"
	// ChallengeKey is the context key for the resolved challenge
	ChallengeKey contextKey = "challenge"
	// ActivityKey is the context key for the resolved activity
	ActivityKey contextKey = "activity"
)

// OwnershipMiddleware guards mutating routes so only the entity's owner
// can pass. Resolved entities are stored in the request context so
// handlers do not load them twice.
type OwnershipMiddleware struct {
	workspaces domain.WorkspaceRepository
	challenges domain.ChallengeRepository
	activities domain.ActivityRepository
}

// NewOwnershipMiddleware creates a new OwnershipMiddleware
func NewOwnershipMiddleware(
	workspaces domain.WorkspaceRepository,
	challenges domain.ChallengeRepository,
	activities domain.ActivityRepository,
) *OwnershipMiddleware {
	return &OwnershipMiddleware{
		workspaces: workspaces,
		challenges: challenges,
		activities: activities,
	}
}

// RequireWorkspaceOwner allows only the workspace's owner through
func (m *OwnershipMiddleware) RequireWorkspaceOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := parseIDParam(c, param)
			if err != nil {
				return err
			}

			workspace, err := m.workspaces.GetByID(c.Request().Context(), id)
			if err != nil {
				return notFoundOrInternal(err, domain.ErrWorkspaceNotFound, "workspace not found")
			}

			if workspace.OwnerID != GetUserID(c) {
				return echo.NewHTTPError(http.StatusForbidden, "only the owner can perform this action")
			}

			stash(c, WorkspaceKey, workspace)
			return next(c)
		}
	}
}

// RequireChallengeOwner allows only the challenge's owner through
func (m *OwnershipMiddleware) RequireChallengeOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := parseIDParam(c, param)
			if err != nil {
				return err
			}

			challenge, err := m.challenges.GetByID(c.Request().Context(), id)
			if err != nil {
				return notFoundOrInternal(err, domain.ErrChallengeNotFound, "challenge not found")
			}

			if challenge.OwnerID != GetUserID(c) {
				return echo.NewHTTPError(http.StatusForbidden, "only the owner can perform this action")
			}

			stash(c, ChallengeKey, challenge)
			return next(c)
		}
	}
}

// RequireActivityOwner allows through only the owner of the activity's
// parent challenge. Activity mutations are governed by who runs the
// challenge, not who logged the entry.
func (m *OwnershipMiddleware) RequireActivityOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := parseIDParam(c, param)
			if err != nil {
				return err
			}

			activity, err := m.activities.GetByID(c.Request().Context(), id)
			if err != nil {
				return notFoundOrInternal(err, domain.ErrActivityNotFound, "activity not found")
			}

			challenge, err := m.challenges.GetByID(c.Request().Context(), activity.ChallengeID)
			if err != nil {
				return notFoundOrInternal(err, domain.ErrChallengeNotFound, "challenge not found")
			}

			if challenge.OwnerID != GetUserID(c) {
				return echo.NewHTTPError(http.StatusForbidden, "only the challenge owner can perform this action")
			}

			stash(c, ActivityKey, activity)
			return next(c)
		}
	}
}

// GetWorkspace extracts the resolved workspace from the context
func GetWorkspace(c echo.Context) *domain.Workspace {
	if w, ok := c.Request().Context().Value(WorkspaceKey).(*domain.Workspace); ok {
		return w
	}
	return nil
}

// GetChallenge extracts the resolved challenge from the context
func GetChallenge(c echo.Context) *domain.Challenge {
	if ch, ok := c.Request().Context().Value(ChallengeKey).(*domain.Challenge); ok {
		return ch
	}
	return nil
}

// GetActivity extracts the resolved activity from the context
func GetActivity(c echo.Context) *domain.Activity {
	if a, ok := c.Request().Context().Value(ActivityKey).(*domain.Activity); ok {
		return a
	}
	return nil
}

func parseIDParam(c echo.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func notFoundOrInternal(err, sentinel error, msg string) error {
	if errors.Is(err, sentinel) || errors.Is(err, domain.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return err
}

func stash(c echo.Context, key contextKey, value interface{}) {
	ctx := context.WithValue(c.Request().Context(), key, value)
	c.SetRequest(c.Request().WithContext(ctx))
}
