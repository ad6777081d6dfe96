// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "ngelmak/docs" // swagger docs
	"ngelmak/internal/bootstrap"
	"ngelmak/internal/config"
	"ngelmak/internal/featureflags"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/notifications"
	"ngelmak/internal/repository"
	"ngelmak/internal/service"
	"ngelmak/internal/storage"
	"ngelmak/internal/sweeper"

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

// wireableHub is a realtime hub fed from the Redis notifier.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

type notificationHub struct {
	*notifications.Hub
}

func (notificationHub) Name() string { return "notification hub" }

// Server holds dependencies for the HTTP server
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	storage      storage.Storage
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	hubs         []wireableHub
	featureFlags *featureflags.Manager
	sweeper      *sweeper.Sweeper

	userService       *service.UserService
	accountService    *service.AccountService
	configService     *service.ConfigService
	postService       *service.PostService
	attachmentService *service.AttachmentService
	commentService    *service.CommentService
	ticketService     *service.TicketService
	reviewService     *service.ReviewService
	membershipService *service.MembershipService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDefaultUsers: cfg.SeedDefaultUsers})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps wires repositories and services over already opened connections.
// redisClient may be nil, in which case realtime notifications are disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Storage) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if store == nil {
		return nil, errors.New("storage is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		storage:        store,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		promMiddleware: middleware.InitMetrics(cfg.AppName),
	}

	var publisher service.EventPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		s.hubs = []wireableHub{notificationHub{s.hub}}
		publisher = s.notifier
	}

	accountRepo := repository.NewAccountRepository(db)
	configRepo := repository.NewConfigRepository(db)
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	s.userService = service.NewUserService(userRepo, service.NewMailService(cfg.MailFrom, cfg.BaseURL))
	s.accountService = service.NewAccountService(accountRepo, configRepo, userRepo)
	s.configService = service.NewConfigService(configRepo)
	s.attachmentService = service.NewAttachmentService(
		repository.NewAttachmentRepository(db), store, s.featureFlags, cfg.StorageAttachmentsDir)
	s.postService = service.NewPostService(
		repository.NewPostRepository(db), accountRepo, membershipRepo, s.attachmentService, publisher, s.featureFlags)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(db))
	s.ticketService = service.NewTicketService(ticketRepo)
	s.reviewService = service.NewReviewService(repository.NewReviewRepository(db), ticketRepo, publisher, s.featureFlags)
	s.membershipService = service.NewMembershipService(membershipRepo, publisher, s.featureFlags)

	retention := time.Duration(cfg.SweepRetentionHours) * time.Hour
	s.sweeper = sweeper.New(s.attachmentService, s.userService, retention)

	return s, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   s.config.AppName,
		BodyLimit: s.bodyLimit(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) bodyLimit() int {
	mb := s.config.MaxUploadSizeMB
	if mb <= 0 {
		mb = 50
	}
	return mb * 1024 * 1024
}

// SetupMiddleware configures all middleware for the application
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must answer before the limiter can short-circuit a request.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:4200,http://localhost:9000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    "Authorization, Link, X-Total-Count, X-" + s.appName() + "-alert, X-" + s.appName() + "-params",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Ngelmak Backend Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public account routes
	api.Post("/authenticate", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "authenticate"), s.Authorize)
	api.Get("/authenticate", s.IsAuthenticated)
	api.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.RegisterAccount)
	api.Get("/activate", s.ActivateAccount)
	api.Post("/account/reset-password/init", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "reset_password"), s.RequestPasswordReset)
	api.Post("/account/reset-password/finish", s.FinishPasswordReset)

	// Websocket routes authenticate on their own: the socket itself only accepts a ticket.
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())

	// Protected routes
	protected := api.Group("", s.AuthRequired())
	protected.Post("/logout", s.Logout)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	accounts := protected.Group("/ngelmak-accounts")
	accounts.Post("/", s.CreateAccount)
	accounts.Put("/", s.UpdateAccount)
	accounts.Get("/", s.GetAccounts)
	// Specific routes before generic /:id
	accounts.Get("/current-user", s.GetCurrentAccount)
	accounts.Patch("/:id", s.PartialUpdateAccount)
	accounts.Get("/:id", s.GetAccount)
	accounts.Delete("/:id", s.DeleteAccount)

	configs := protected.Group("/configs")
	configs.Post("/", s.CreateConfig)
	configs.Get("/", s.GetConfigs)
	configs.Put("/:id", s.UpdateConfig)
	configs.Patch("/:id", s.PartialUpdateConfig)
	configs.Get("/:id", s.GetConfig)
	configs.Delete("/:id", s.DeleteConfig)

	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Put("/", s.UpdatePost)
	posts.Get("/", s.GetPosts)
	posts.Patch("/:id", s.PartialUpdatePost)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.DeletePost)

	attachments := protected.Group("/attachments")
	attachments.Post("/", s.CreateAttachment)
	attachments.Get("/", s.GetAttachments)
	attachments.Get("/:id/resource", s.GetAttachmentResource)
	attachments.Get("/:id/preview", s.GetAttachmentPreview)
	attachments.Put("/:id", s.UpdateAttachment)
	attachments.Patch("/:id", s.PartialUpdateAttachment)
	attachments.Get("/:id", s.GetAttachment)
	attachments.Delete("/:id", s.DeleteAttachment)

	comments := protected.Group("/comments")
	comments.Post("/", s.CreateComment)
	comments.Get("/", s.GetComments)
	comments.Put("/:id", s.UpdateComment)
	comments.Patch("/:id", s.PartialUpdateComment)
	comments.Get("/:id", s.GetComment)
	comments.Delete("/:id", s.DeleteComment)

	tickets := protected.Group("/tickets")
	tickets.Post("/", s.CreateTicket)
	tickets.Get("/", s.GetTickets)
	tickets.Put("/:id", s.UpdateTicket)
	tickets.Patch("/:id", s.PartialUpdateTicket)
	tickets.Get("/:id", s.GetTicket)
	tickets.Delete("/:id", s.DeleteTicket)

	reviews := protected.Group("/reviews")
	reviews.Post("/", s.CreateReview)
	reviews.Get("/", s.GetReviews)
	reviews.Put("/:id", s.UpdateReview)
	reviews.Patch("/:id", s.PartialUpdateReview)
	reviews.Get("/:id", s.GetReview)
	reviews.Delete("/:id", s.DeleteReview)

	memberships := protected.Group("/memberships")
	memberships.Post("/", s.CreateMembership)
	memberships.Get("/", s.GetMemberships)
	memberships.Put("/:id", s.UpdateMembership)
	memberships.Patch("/:id", s.PartialUpdateMembership)
	memberships.Get("/:id", s.GetMembership)
	memberships.Delete("/:id", s.DeleteMembership)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	// Wire all hubs to Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					middleware.Logger.Error("failed to start hub wiring", "hub", h.Name(), "error", err)
				}
			}()
		}
	}

	if err := s.sweeper.Start(s.shutdownCtx, s.config.SweepSchedule); err != nil {
		return err
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	s.sweeper.Stop()

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", h.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
