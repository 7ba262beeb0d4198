// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "murmur/docs" // swagger docs
	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/feed"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/oauth"
	"murmur/internal/repository"
	"murmur/internal/service"
	"murmur/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
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

	auth     *middleware.Authenticator
	disks    *storage.Disks
	notifier *notifications.Notifier
	hub      *notifications.Hub
	realtime *notifications.Realtime

	userRepo repository.UserRepository
	composer *feed.Composer

	authService         *service.AuthService
	userService         *service.UserService
	profileService      *service.ProfileService
	followService       *service.FollowService
	postService         *service.PostService
	commentService      *service.CommentService
	engagementService   *service.EngagementService
	notificationService *service.NotificationService
	chatService         *service.ChatService
}

// NewServer connects to the database, Redis and the media store and builds a
// Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: cfg.SeedDemoData})
	if err != nil {
		return nil, err
	}

	disks, err := storage.Open(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage failed: %w", err)
	}

	var provider oauth.Provider
	if cfg.OAuthEnabled {
		provider = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}
	return NewServerWithDeps(cfg, db, rdb, disks, provider)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient and provider may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, disks *storage.Disks, provider oauth.Provider) (*Server, error) {
	if disks == nil {
		return nil, fmt.Errorf("media storage is required")
	}

	userRepo := repository.NewUserRepository(db, disks)
	followRepo := repository.NewFollowRepository(db, disks)
	postRepo := repository.NewPostRepository(db, disks)
	commentRepo := repository.NewCommentRepository(db, disks)
	engagementRepo := repository.NewEngagementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db, disks)
	chatRepo := repository.NewChatRepository(db, disks)
	mediaRepo := repository.NewMediaRepository(db)
	store := repository.NewFeedStore(db, userRepo, followRepo, disks)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("murmur-api"),
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, redisClient),
		disks:          disks,
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		userRepo:       userRepo,
		composer:       feed.NewComposer(store),
	}
	s.realtime = notifications.NewRealtime(s.hub, s.notifier)

	media := service.NewMediaService(mediaRepo, disks, cfg.ImageMaxUploadMB)
	s.notificationService = service.NewNotificationService(notificationRepo, s.realtime)
	s.authService = service.NewAuthService(userRepo, s.auth, provider)
	s.userService = service.NewUserService(userRepo, followRepo)
	s.profileService = service.NewProfileService(userRepo, followRepo, s.composer, media)
	s.followService = service.NewFollowService(followRepo, userRepo, s.notificationService, s.realtime)
	s.postService = service.NewPostService(postRepo, store, s.notificationService)
	s.commentService = service.NewCommentService(commentRepo, postRepo, followRepo, s.notificationService)
	s.engagementService = service.NewEngagementService(engagementRepo, postRepo, commentRepo, followRepo, s.notificationService)
	s.chatService = service.NewChatService(chatRepo, s.realtime)
	return s, nil
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

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !middleware.RateLimitEnforced(s.config.Env)
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
	if local, err := s.disks.Get(storage.DiskLocal); err == nil {
		if l, ok := local.(*storage.Local); ok {
			app.Static("/media", l.BasePath())
		}
	}

	limit := middleware.NewLimiter(s.redis, s.config.Env)
	api := app.Group("/api", s.auth.Optional())
	api.Get("/swagger/*", swagger.HandlerDefault)
	required := s.auth.Required()

	auth := api.Group("/auth")
	auth.Get("/google/redirect", s.GoogleRedirect)
	auth.Get("/google/callback", limit.Handler("login", 10, 5*time.Minute, middleware.FailOpen), s.GoogleCallback)
	auth.Post("/logout", required, s.Logout)

	// Specific /users routes before the generic /:username ones.
	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/search", limit.Handler("search", 30, time.Minute, middleware.FailOpen), s.SearchUsers)
	users.Get("/suggestions", required, s.Suggestions)
	users.Get("/me", required, s.GetMe)
	users.Put("/me", required, s.UpdateMe)
	users.Post("/:id/follow", required, limit.Handler("follow", 30, time.Minute, middleware.FailOpen), s.Follow)
	users.Delete("/:id/follow", required, s.Unfollow)
	users.Get("/:username/reposts", s.GetReposts)
	users.Get("/:username/followers", s.ListFollowers)
	users.Get("/:username/following", s.ListFollowing)
	users.Get("/:username/friends", s.ListFriends)
	users.Get("/:username", s.GetProfile)

	follows := api.Group("/follows", required)
	follows.Post("/:id/accept", s.AcceptFollow)
	follows.Post("/:id/reject", s.RejectFollow)

	// Viewer feeds reject anonymous callers inside the composer.
	feeds := api.Group("/feed")
	feeds.Get("/following", s.FollowingFeed)
	feeds.Get("/favorites", s.FavoritesFeed)
	feeds.Get("/liked", s.LikedFeed)

	posts := api.Group("/posts")
	posts.Post("/", required, limit.Handler("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/comments", required, limit.Handler("create_comment", 20, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Post("/:id/like", required, s.LikePost)
	posts.Delete("/:id/like", required, s.UnlikePost)
	posts.Post("/:id/favorite", required, s.FavoritePost)
	posts.Delete("/:id/favorite", required, s.UnfavoritePost)
	posts.Post("/:id/repost", required, s.Repost)
	posts.Delete("/:id/repost", required, s.Unrepost)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", required, s.DeletePost)

	comments := api.Group("/comments", required)
	comments.Post("/:id/like", s.LikeComment)
	comments.Delete("/:id/like", s.UnlikeComment)

	notes := api.Group("/notifications", required)
	notes.Get("/", s.ListNotifications)
	notes.Get("/unread-count", s.UnreadCount)
	notes.Post("/read-all", s.MarkAllRead)
	notes.Post("/:id/read", s.MarkRead)
	notes.Post("/:id/unread", s.MarkUnread)

	chat := api.Group("/chat", required)
	chat.Get("/everyone", s.ChatHistory)
	chat.Post("/everyone", limit.Handler("send_chat", 15, time.Minute, middleware.FailOpen), s.SendChat)

	api.Post("/ws/ticket", required, s.IssueWSTicket)
	api.Get("/ws", required, s.upgradeOnly, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: a
// server running without it is ready but degraded.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
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
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp returns a configured fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if mb := s.config.ImageMaxUploadMB; mb > 0 {
		// profile and cover image in one form
		bodyLimit = (2*mb + 1) * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		AppName:   "murmur",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.app = s.NewApp()

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
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
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}
	middleware.Logger.Info("server shutdown complete")
	return nil
}
