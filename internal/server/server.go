// Package server contains the HTTP and WebSocket handlers for devcentral.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "devcentral/docs" // swagger docs
	"devcentral/internal/bootstrap"
	"devcentral/internal/config"
	"devcentral/internal/markdown"
	"devcentral/internal/middleware"
	"devcentral/internal/models"
	"devcentral/internal/notifications"
	"devcentral/internal/repository"
	"devcentral/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
	postRepo     repository.PostRepository
	replyRepo    repository.ReplyRepository
	reactionRepo repository.ReactionRepository
	snippetRepo  repository.SnippetRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	media           *service.MediaService
	accountService  *service.AccountService
	followService   *service.FollowService
	timelineService *service.TimelineService
	postService     *service.PostService
	replyService    *service.ReplyService
	reactionService *service.ReactionService
	snippetService  *service.SnippetService
}

// NewServer builds a Server from an initialized runtime.
func NewServer(cfg *config.Config, rt *bootstrap.Runtime) (*Server, error) {
	if rt == nil {
		return nil, fmt.Errorf("runtime is required")
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching is skipped and notifications are delivered
// in-process only.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("devcentral"),
		userRepo:       repository.NewUserRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		postRepo:       repository.NewPostRepository(db),
		replyRepo:      repository.NewReplyRepository(db),
		reactionRepo:   repository.NewReactionRepository(db),
		snippetRepo:    repository.NewSnippetRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		media:          service.NewMediaService(cfg),
	}
	s.wireServices()
	return s, nil
}

func (s *Server) wireServices() {
	renderer := markdown.NewRenderer()
	s.accountService = service.NewAccountService(s.userRepo, s.followRepo, s.media)
	s.followService = service.NewFollowService(s.userRepo, s.followRepo, s.notifier)
	s.timelineService = service.NewTimelineService(s.postRepo, s.replyRepo, s.followRepo, renderer, s.media)
	s.postService = service.NewPostService(s.postRepo, s.media)
	s.replyService = service.NewReplyService(s.postRepo, s.replyRepo, s.notifier)
	s.reactionService = service.NewReactionService(s.postRepo, s.reactionRepo, s.notifier)
	s.snippetService = service.NewSnippetService(s.snippetRepo, renderer)
}

// NewApp builds a Fiber app with the error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if mb := s.config.ImageMaxUploadSizeMB + 1; mb*1024*1024 > bodyLimit {
		bodyLimit = mb * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:      "devcentral",
		BodyLimit:    bodyLimit,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// ErrorHandler renders every unhandled error as the standard JSON body.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		code := models.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = models.CodeValidation
		case fiber.StatusUnauthorized:
			code = models.CodeUnauthorized
		case fiber.StatusForbidden:
			code = models.CodeForbidden
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: code, Message: fe.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so short-circuited responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "devcentral metrics",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Static(s.media.Prefix(), s.media.Dir())

	// Accounts
	app.Get("/signup/", s.SignupForm)
	app.Post("/signup/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Get("/accounts/login/", s.LoginForm)
	app.Post("/accounts/login/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/accounts/logout/", s.Logout)

	auth := s.AuthRequired()

	app.Get("/", auth, s.Timeline)
	app.Get("/explore/", auth, s.Explore)
	app.Get("/users/", auth, s.ListUsers)
	app.Get("/account/delete/", auth, s.DeleteAccountForm)
	app.Post("/account/delete/", auth, s.DeleteAccount)

	// Profiles. Specific /:username/:verb routes before the generic profile route.
	app.Post("/u/:username/follow/", auth, s.Follow)
	app.Post("/u/:username/unfollow/", auth, s.Unfollow)
	app.Get("/u/:username/", auth, s.GetProfile)
	app.Post("/u/:username/", auth, s.UpdateProfile)

	// Posts. share and reply are registered before the generic :action route
	// so they are never treated as counter actions.
	app.Get("/post/create/", auth, s.CreatePostForm)
	app.Post("/post/create/", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	app.Get("/post/:id/edit/", auth, s.EditPostForm)
	app.Post("/post/:id/edit/", auth, s.UpdatePost)
	app.Post("/post/:id/delete/", auth, s.DeletePost)
	app.Post("/post/:id/share/", auth, s.SharePost)
	app.Post("/post/:id/reply/", auth, middleware.RateLimit(s.redis, 20, time.Minute, "create_reply"), s.CreateReply)
	app.Post("/post/:id/:action/", auth, s.PostAction)

	// Snippets
	app.Get("/snippets/", auth, s.ListSnippets)
	app.Get("/snippets/create/", auth, s.CreateSnippetForm)
	app.Post("/snippets/create/", auth, s.CreateSnippet)
	app.Post("/snippets/:id/delete/", auth, s.DeleteSnippet)
	app.Get("/snippets/:id/", auth, s.GetSnippet)

	app.Get("/ws", auth, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: a
// missing client is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires realtime delivery and listens until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Warn("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Warn("error shutting down notification hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Warn("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Warn("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
