package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/stride-app/stride-backend/internal/middleware"
)

// Handlers bundles every HTTP handler registered by RegisterRoutes
type Handlers struct {
	Auth             *AuthHandler
	User             *UserHandler
	Workspace        *WorkspaceHandler
	Challenge        *ChallengeHandler
	Activity         *ActivityHandler
	WorkspaceMembers *MembershipHandler
	ChallengeMembers *MembershipHandler
	WebSocket        *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	ownership *middleware.OwnershipMiddleware,
	authLimiter *middleware.RateLimiter,
) {
	// API version 1
	api := e.Group("/api/v1")

	// Public auth routes; credential endpoints are rate limited per IP
	limited := middleware.RateLimitMiddleware(authLimiter)
	api.POST("/users/register", h.Auth.Register, limited)
	api.POST("/users/login", h.Auth.Login, limited)
	api.GET("/users/checkuser", h.Auth.CheckUser)
	api.GET("/users/verify-email", h.Auth.VerifyEmail)
	api.GET("/auth/google/request", h.Auth.GoogleRequest)
	api.GET("/auth/google", h.Auth.GoogleCallback)

	// User routes (protected)
	users := api.Group("/users")
	users.Use(authMiddleware.Authenticate())
	users.GET("/me", h.User.Me)
	users.GET("/:id", h.User.GetUser)
	users.PUT("/edit/:id", h.User.UpdateUser)
	users.DELETE("/delete/:id", h.User.DeleteUser)
	users.POST("/:id/avatar", h.User.UploadAvatar)

	// Workspace routes (protected)
	workspaces := api.Group("/workspaces")
	workspaces.Use(authMiddleware.Authenticate())
	workspaces.POST("", h.Workspace.CreateWorkspace)
	workspaces.GET("", h.Workspace.GetWorkspaces)
	workspaces.GET("/:id", h.Workspace.GetWorkspace)
	workspaces.PUT("/:id", h.Workspace.UpdateWorkspace, ownership.RequireWorkspaceOwner("id"))
	workspaces.DELETE("/:id", h.Workspace.DeleteWorkspace, ownership.RequireWorkspaceOwner("id"))
	workspaces.POST("/:id/image", h.Workspace.UploadImage, ownership.RequireWorkspaceOwner("id"))
	workspaces.POST("/:id/join", h.WorkspaceMembers.Join)
	workspaces.POST("/:id/leave", h.WorkspaceMembers.Leave)
	workspaces.GET("/:id/members", h.WorkspaceMembers.Members)

	// Challenges nested under their workspace
	workspaces.POST("/:id/challenges", h.Challenge.CreateChallenge)
	workspaces.GET("/:id/challenges", h.Challenge.GetChallenges)

	// Challenge routes (protected)
	challenges := api.Group("/challenges")
	challenges.Use(authMiddleware.Authenticate())
	challenges.GET("/:id", h.Challenge.GetChallenge)
	challenges.PUT("/:id", h.Challenge.UpdateChallenge, ownership.RequireChallengeOwner("id"))
	challenges.DELETE("/:id", h.Challenge.DeleteChallenge, ownership.RequireChallengeOwner("id"))
	challenges.POST("/:id/image", h.Challenge.UploadImage, ownership.RequireChallengeOwner("id"))
	challenges.POST("/:id/join", h.ChallengeMembers.Join)
	challenges.POST("/:id/leave", h.ChallengeMembers.Leave)
	challenges.GET("/:id/members", h.ChallengeMembers.Members)

	// Activities nested under their challenge
	challenges.POST("/:id/activities", h.Activity.CreateActivity)
	challenges.GET("/:id/activities", h.Activity.GetActivities)

	// Activity routes (protected). Mutations require the parent
	// challenge's owner.
	activities := api.Group("/activities")
	activities.Use(authMiddleware.Authenticate())
	activities.GET("/:id", h.Activity.GetActivity)
	activities.PUT("/:id", h.Activity.UpdateActivity, ownership.RequireActivityOwner("id"))
	activities.DELETE("/:id", h.Activity.DeleteActivity, ownership.RequireActivityOwner("id"))
	activities.POST("/:id/image", h.Activity.UploadImage, ownership.RequireActivityOwner("id"))

	// Live event stream (token authenticated via query parameter)
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}
}
