package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tarhal-app/backend/internal/auth"
	"github.com/tarhal-app/backend/internal/handlers"
	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/realtime"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
	"github.com/tarhal-app/backend/pkg/config"
	"github.com/tarhal-app/backend/pkg/logging"
)

// SetupMiddleware configures global Echo middleware and the error handler
func SetupMiddleware(e *echo.Echo) {
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestID())
	e.Use(requestLogger())
	logging.WithComponent("router").Info("Global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, hub *realtime.Hub) error {
	log := logging.WithComponent("router")

	if err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Block{},
		&models.Like{},
		&models.Comment{},
		&models.CommentLike{},
		&models.SavedPost{},
		&models.Notification{},
	); err != nil {
		return err
	}
	log.Info("PostgreSQL auto-migrations completed")

	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	blockRepo := repositories.NewPostgresBlockRepository(db.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(db.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(db.MongoDatabase())
	conversationRepo := repositories.NewMongoConversationRepository(db.MongoDatabase())

	resolver := visibility.NewResolver(followRepo, blockRepo)
	tokens := auth.NewTokenManager(&cfg.Auth, db.Redis)

	healthHandler := handlers.NewHealthHandler(db)
	healthHandler.RegisterHealthRoutes(e)

	// Unauthenticated auth surface
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, tokens, cfg.Server.Env == "production")
	authHandler.RegisterAuthRoutes(authGroup)

	// Read surface: identity is resolved when present but not required, so
	// public content stays reachable without a token.
	public := e.Group("/api/v1")
	public.Use(middleware.OptionalAuth(tokens))

	// Write surface: identity required
	authed := e.Group("/api/v1")
	authed.Use(middleware.RequireAuth(tokens))

	authHandler.RegisterProtectedAuthRoutes(authed.Group("/auth"))

	userHandler := handlers.NewUserHandler(userRepo, followRepo, blockRepo, postRepo, resolver)
	userHandler.RegisterUserRoutes(public, authed)

	followHandler := handlers.NewFollowHandler(followRepo, userRepo, notificationRepo, resolver, hub)
	followHandler.RegisterFollowRoutes(public, authed)

	postHandler := handlers.NewPostHandler(postRepo, userRepo, likeRepo, savedPostRepo, resolver)
	postHandler.RegisterPostRoutes(public, authed)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, notificationRepo, resolver, hub)
	likeHandler.RegisterLikeRoutes(public, authed)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, notificationRepo, resolver, hub)
	commentHandler.RegisterCommentRoutes(public, authed)

	savedPostHandler := handlers.NewSavedPostHandler(savedPostRepo, postRepo, userRepo, resolver)
	savedPostHandler.RegisterSavedPostRoutes(authed)

	messageHandler := handlers.NewMessageHandler(conversationRepo, userRepo, notificationRepo, resolver, hub)
	messageHandler.RegisterMessageRoutes(authed)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(authed)

	statsHandler := handlers.NewStatsHandler(userRepo, postRepo, commentRepo, followRepo, conversationRepo, notificationRepo)
	statsHandler.RegisterStatsRoutes(public, authed)

	ws := e.Group("/ws")
	ws.Use(middleware.OptionalAuth(tokens))
	ws.GET("", realtime.ServeWS(hub))

	log.Info("All routes configured")
	return nil
}

// errorHandler shapes every error as {"error": message, "code": status}
func errorHandler(err error, c echo.Context) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		logging.WithComponent("router").Error("request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		message = "Internal server error"
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
		} else {
			_ = c.JSON(status, echo.Map{"error": message, "code": status})
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	log := logging.WithComponent("http")
	return eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
