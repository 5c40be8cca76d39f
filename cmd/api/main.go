package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
	"citizen-registry/internal/handler"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service"
	"citizen-registry/internal/service/identity"
)

const (
	sessionPurgeInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zl, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.JWTSecret == "" {
		zl.Fatal("JWT_SECRET must be set")
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := config.RunMigrations(db); err != nil {
		zl.Fatal("Failed to run migrations", zap.Error(err))
	}

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		zl.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redis != nil {
		defer redis.Close()
	}

	minioClient, err := config.NewMinIOClient(cfg, zl)
	if err != nil {
		zl.Warn("Failed to connect to MinIO, media upload will not work", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var feed realtime.Feed
	if redis != nil {
		feed = realtime.NewRedisFeed(redis, zl.Named("feed"))
	} else {
		zl.Info("REDIS_URL not set, using in-process change feed")
		feed = realtime.NewLocalFeed()
	}
	defer feed.Close()

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(repos, redis, minioClient, feed, cfg, zl, m)
	if err != nil {
		zl.Fatal("Failed to build services", zap.Error(err))
	}
	defer services.Stats.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := feed.Subscribe(ctx, services.Stats.ChangeHandler(services.Origin)); err != nil {
		zl.Fatal("Failed to subscribe to change feed", zap.Error(err))
	}

	hub := realtime.NewHub(services.Stats.Snapshot, zl.Named("hub"), m)
	unsubscribe := services.Stats.Subscribe(hub.Broadcast)
	defer unsubscribe()

	if err := services.Stats.Start(ctx); err != nil {
		zl.Warn("Initial stats refresh failed, serving cached or empty snapshot", zap.Error(err))
	}

	go purgeSessions(ctx, services.Identity, zl)

	handlers := handler.NewHandlers(services, hub, zl)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.NewErrorHandler(zl),
		BodyLimit:    int(domain.MaxUploadSize) + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Add middleware to extract real IP (for Cloudflare) and User-Agent
	app.Use(middleware.RequestInfo())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	setupRoutes(app, handlers, services)

	go func() {
		zl.Info("Server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
			zl.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func purgeSessions(ctx context.Context, provider identity.Provider, zl *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := provider.PurgeExpiredSessions(ctx); err != nil {
				zl.Warn("Failed to purge expired sessions", zap.Error(err))
			}
		}
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, services *service.Services) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use("/ws/stats", h.Stats.Upgrade)
	app.Get("/ws/stats", h.Stats.Stream())

	v1 := app.Group("/api/v1")
	requireAuth := middleware.AuthRequired(services.Identity, services.User)
	optionalAuth := middleware.OptionalAuth(services.Identity, services.User)

	auth := v1.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/logout", h.Auth.Logout)

	v1.Post("/access-requests", h.AccessRequest.Submit)
	v1.Post("/registrations", optionalAuth, h.Registration.SubmitCitizen)
	v1.Post("/incidents", optionalAuth, h.Incident.Submit)
	v1.Post("/incidents/:id/evidence", h.Incident.AttachEvidence)

	protected := v1.Group("", requireAuth)

	accessRequests := protected.Group("/access-requests", middleware.RequireRole(domain.RoleAdmin))
	accessRequests.Get("/", h.AccessRequest.List)
	accessRequests.Get("/:id", h.AccessRequest.Get)
	accessRequests.Post("/:id/approve", h.AccessRequest.Approve)
	accessRequests.Post("/:id/reject", h.AccessRequest.Reject)

	registrations := protected.Group("/registrations")
	registrations.Get("/", h.Registration.List)
	registrations.Get("/:id", h.Registration.Get)
	registrations.Post("/suspects", middleware.RequireRole(domain.RoleOperator), h.Registration.FlagSuspect)
	registrations.Patch("/:id", middleware.RequireRole(domain.RoleOperator), h.Registration.Update)
	registrations.Put("/:id/status", middleware.RequireRole(domain.RoleOperator), h.Registration.SetStatus)
	registrations.Post("/:id/unflag", middleware.RequireRole(domain.RoleOperator), h.Registration.Unflag)
	registrations.Post("/:id/photo", middleware.RequireRole(domain.RoleOperator), h.Registration.UploadPhoto)

	incidents := protected.Group("/incidents")
	incidents.Get("/", h.Incident.List)
	incidents.Get("/:id", h.Incident.Get)
	incidents.Post("/:id/approve", middleware.RequireRole(domain.RoleOperator), h.Incident.Approve)
	incidents.Post("/:id/reject", middleware.RequireRole(domain.RoleOperator), h.Incident.Reject)

	protected.Get("/stats", h.Stats.Get)
	protected.Post("/stats/refresh", h.Stats.Refresh)
	protected.Get("/dashboard/overview", h.Dashboard.GetOverview)

	users := protected.Group("/users")
	users.Get("/me", h.User.GetProfile)
	users.Put("/me", h.User.UpdateProfile)
	users.Post("/me/avatar", h.User.UploadAvatar)
	users.Get("/", middleware.RequireRole(domain.RoleAdmin), h.User.List)
	users.Post("/", middleware.RequireRole(domain.RoleAdmin), h.User.Create)
	users.Patch("/:id/role", middleware.RequireRole(domain.RoleAdmin), h.User.ChangeRole)
	users.Patch("/:id/active", middleware.RequireRole(domain.RoleAdmin), h.User.SetActive)

	reports := protected.Group("/reports", middleware.RequireRole(domain.RoleAnalyst))
	reports.Post("/", h.Report.Generate)
	reports.Get("/", h.Report.List)
	reports.Get("/:id", h.Report.Get)
	reports.Get("/:id/export", h.Report.Export)

	reference := protected.Group("/reference")
	reference.Get("/:kind", h.Reference.List)
	reference.Post("/:kind", middleware.RequireRole(domain.RoleAdmin), h.Reference.Add)
	reference.Put("/:kind/:id", middleware.RequireRole(domain.RoleAdmin), h.Reference.Update)
	reference.Delete("/:kind/:id", middleware.RequireRole(domain.RoleAdmin), h.Reference.Delete)

	protected.Post("/assistant/chat", h.Chat.Chat)

	audit := protected.Group("/audit", middleware.RequireRole(domain.RoleAdmin))
	audit.Get("/recent", h.Audit.GetRecentActivities)
	audit.Get("/", h.Audit.List)
}
