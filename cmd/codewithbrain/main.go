// Package main is the entry point for the CodeWithBrain blog server.
// It loads configuration, connects to services, wires the event bus and
// its listeners, sets up routing, and starts the HTTP server with graceful
// shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"codewithbrain/internal/audit"
	"codewithbrain/internal/cache"
	"codewithbrain/internal/config"
	"codewithbrain/internal/database"
	"codewithbrain/internal/events"
	"codewithbrain/internal/handlers"
	"codewithbrain/internal/lifecycle"
	"codewithbrain/internal/logging"
	"codewithbrain/internal/middleware"
	"codewithbrain/internal/render"
	"codewithbrain/internal/router"
	"codewithbrain/internal/session"
	"codewithbrain/internal/storage"
	"codewithbrain/internal/store"
)

func main() {
	// Load configuration from defaults, CONFIG_FILE and the environment.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Channel loggers: app becomes the default, admin and access are
	// handed to the auditor.
	logs, err := logging.New(logging.Options{
		Dir:   cfg.LogDir,
		Level: logging.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON(),
	})
	if err != nil {
		slog.Error("failed to open log files", "error", err)
		os.Exit(1)
	}
	defer logs.Close()
	slog.SetDefault(logs.App)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"log_dir", cfg.LogDir,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Metrics registry served on /metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Event bus and the audit listeners. Listeners are registered before
	// any store write so the seed is audited too.
	bus := events.NewBus(logs.App)
	contentTypes := store.NewContentTypeStore(db)
	auditor := audit.New(logs.Admin, logs.Access, contentTypes,
		audit.WithPathPrefix(cfg.AdminPathPrefix),
		audit.WithMetrics(audit.NewMetrics(reg)),
	)
	auditor.Register(bus)

	// Initialize data stores.
	lc := lifecycle.New()
	userStore := store.NewUserStore(db, bus)
	postStore := store.NewPostStore(db, lc, bus)
	categoryStore := store.NewCategoryStore(db, lc, bus)
	tagStore := store.NewTagStore(db, lc)
	commentStore := store.NewCommentStore(db, bus)
	logEntryStore := store.NewLogEntryStore(db, contentTypes, bus)

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(context.Background(), db, userStore); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Full-page HTML cache, flushed on every content change.
	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	pageCache.Instrument(reg)
	pageCache.Register(bus)

	// S3-compatible object storage for post images (optional).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3BucketPublic, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	var imageURL func(string) string
	if storageClient != nil {
		imageURL = storageClient.FileURL
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	renderer, err := render.New(render.Options{ImageURL: imageURL})
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Per-IP limiters for login attempts and comment submission.
	loginLimiter := middleware.NewRateLimiter("login", 10, 15*time.Minute, logs.App)
	defer loginLimiter.Stop()
	commentLimiter := middleware.NewRateLimiter("comment", cfg.CommentRateLimit, time.Hour, logs.App)
	defer commentLimiter.Stop()
	for _, rl := range []*middleware.RateLimiter{loginLimiter, commentLimiter} {
		if err := rl.Instrument(reg); err != nil {
			slog.Error("failed to register rate limit metrics", "error", err)
			os.Exit(1)
		}
	}

	security := middleware.SecurityOptions{HSTS: secureCookies}
	if storageClient != nil {
		security.ImageSources = append(security.ImageSources, storageClient.FileURL(""))
	}

	// Scheduled log archiving.
	var scheduler *cron.Cron
	if cfg.LogDir != "" && cfg.LogArchiveSchedule != "" {
		scheduler, err = logging.NewScheduler(cfg.LogArchiveSchedule, logs)
		if err != nil {
			slog.Error("failed to schedule log archiving", "error", err)
			os.Exit(1)
		}
	}

	r := router.New(router.Deps{
		Sessions:       sessionStore,
		Bus:            bus,
		Logger:         logs.App,
		Security:       security,
		Public:         handlers.NewPublic(renderer, postStore, categoryStore, tagStore, commentStore, pageCache, cfg.PageSize),
		API:            handlers.NewAPI(postStore, categoryStore, commentStore, cfg.PageSize),
		Admin:          handlers.NewAdmin(postStore, categoryStore, tagStore, commentStore, userStore, logEntryStore, storageClient),
		Auth:           handlers.NewAuth(sessionStore, userStore, bus),
		Metrics:        middleware.NewHTTPMetrics(reg),
		Gatherer:       reg,
		LoginLimiter:   loginLimiter,
		CommentLimiter: commentLimiter,
		AdminPrefix:    cfg.AdminPathPrefix,
		SecureCookies:  secureCookies,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
