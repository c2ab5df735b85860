package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/stride-app/stride-backend/internal/config"
	"github.com/stride-app/stride-backend/internal/handler"
	"github.com/stride-app/stride-backend/internal/mail"
	"github.com/stride-app/stride-backend/internal/middleware"
	"github.com/stride-app/stride-backend/internal/repository/postgres"
	"github.com/stride-app/stride-backend/internal/repository/storage"
	"github.com/stride-app/stride-backend/internal/service"
	"github.com/stride-app/stride-backend/internal/token"
	"github.com/stride-app/stride-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	challengeRepo := postgres.NewChallengeRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	workspaceMemberRepo := postgres.NewWorkspaceMemberRepository(pool)
	challengeMemberRepo := postgres.NewChallengeMemberRepository(pool)

	// Image storage is optional; uploads stay disabled without S3 config
	var imageService *service.ImageService
	if cfg.S3.AccessKeyID != "" || cfg.S3.Endpoint != "" {
		imageRepo, err := storage.NewS3ImageRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize image storage")
		}
		imageService = service.NewImageService(imageRepo)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Image storage enabled")
	} else {
		imageService = service.NewImageService(nil)
		log.Warn().Msg("Image storage not configured; uploads disabled")
	}

	// Verification mail is optional; registration works without it
	var mailer mail.Mailer
	if m := mail.NewSMTPMailer(cfg.SMTP, cfg.BaseURL); m != nil {
		mailer = m
		log.Info().Str("host", cfg.SMTP.Host).Msg("SMTP mailer enabled")
	} else {
		log.Warn().Msg("SMTP not configured; verification mail disabled")
	}

	// Google OAuth is optional
	var googleOAuth *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleOAuth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
		log.Info().Msg("Google login enabled")
	} else {
		log.Warn().Msg("Google OAuth not configured; federated login disabled")
	}

	tokenManager := token.NewManager(cfg.JWTSecret)

	// WebSocket hub for live workspace events
	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenManager, mailer, googleOAuth)
	userService := service.NewUserService(userRepo, imageService)
	workspaceService := service.NewWorkspaceService(workspaceRepo, workspaceMemberRepo, imageService)
	challengeService := service.NewChallengeService(challengeRepo, workspaceRepo, imageService, hub)
	activityService := service.NewActivityService(activityRepo, challengeRepo, imageService, hub)
	workspaceMembershipService := service.NewWorkspaceMembershipService(workspaceRepo, workspaceMemberRepo, userRepo, hub)
	challengeMembershipService := service.NewChallengeMembershipService(challengeRepo, challengeMemberRepo, userRepo, challengeRepo, hub)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenManager, userRepo)
	ownership := middleware.NewOwnershipMiddleware(workspaceRepo, challengeRepo, activityRepo)
	authLimiter := middleware.NewRateLimiter()
	defer authLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:             handler.NewAuthHandler(authService, userService),
		User:             handler.NewUserHandler(userService),
		Workspace:        handler.NewWorkspaceHandler(workspaceService, imageService),
		Challenge:        handler.NewChallengeHandler(challengeService, imageService),
		Activity:         handler.NewActivityHandler(activityService, imageService),
		WorkspaceMembers: handler.NewMembershipHandler(workspaceMembershipService, userService, "Workspace"),
		ChallengeMembers: handler.NewMembershipHandler(challengeMembershipService, userService, "Challenge"),
		WebSocket:        handler.NewWebSocketHandler(hub, tokenManager, workspaceMembershipService, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, handlers, authMiddleware, ownership, authLimiter)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
