package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sipeta/docs"
	"sipeta/internal/auth"
	"sipeta/internal/category"
	"sipeta/internal/config"
	"sipeta/internal/database"
	"sipeta/internal/database/migration"
	"sipeta/internal/history"
	handlers "sipeta/internal/http/handler"
	"sipeta/internal/http/middleware"
	"sipeta/internal/janitor"
	"sipeta/internal/logger"
	"sipeta/internal/metrics"
	"sipeta/internal/otel"
	"sipeta/internal/repository/postgres"
	"sipeta/internal/service"
	"sipeta/internal/storage"
	"sipeta/internal/upload"
)

// @title SIPETA Document Archive API
// @version 1.0
// @description Upload, register and browse archived correspondence and administrative documents.
// @BasePath /
func main() {
	cfg := config.Load()
	loc := cfg.Location()
	log := logger.New(os.Stdout, cfg.LogLevel, loc)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Str("event", "config_invalid").Err(err).Msg("")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger.Component(log, "otel"))
	if err != nil {
		log.Fatal().Str("event", "tracing_init_failed").Err(err).Msg("")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Str("event", "db_connect_failed").Err(err).Msg("")
	}
	defer db.Close()

	reg := category.Default()
	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, reg, logger.Component(log, "migration"), cfg.Database.Host); err != nil {
			log.Fatal().Str("event", "db_migration_failed").Err(err).Msg("")
		}
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.Fatal().Str("event", "storage_init_failed").Err(err).Msg("")
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	archiveMetrics, err := metrics.NewArchive(promReg)
	if err != nil {
		log.Fatal().Str("event", "metrics_init_failed").Err(err).Msg("")
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(promReg)
	if err != nil {
		log.Fatal().Str("event", "metrics_init_failed").Err(err).Msg("")
	}

	recordRepo := postgres.NewRecordPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	boards := history.NewBoards(reg, recordRepo, loc, cfg.BoardTTL, logger.Component(log, "history"))
	uploader := upload.NewUploader(objStore, upload.NewTracker(10*time.Minute), archiveMetrics, logger.Component(log, "upload"))

	archiveSvc := service.NewArchiveService(service.ArchiveDeps{
		Registry: reg,
		Repo:     recordRepo,
		Store:    objStore,
		Uploader: uploader,
		Boards:   boards,
		Metrics:  archiveMetrics,
		Upload:   cfg.Upload,
		Location: loc,
		Logger:   logger.Component(log, "archive"),
	})
	authSvc := service.NewAuthService(
		auth.NewLocal(userRepo, userRepo, auth.NewTokens(cfg.Auth)),
		userRepo,
		logger.Component(log, "auth"),
	)
	diagSvc := service.NewDiagnosticsService(reg, recordRepo, logger.Component(log, "diagnostics"))

	sweeper := janitor.New(reg, recordRepo, objStore, boards, archiveMetrics, cfg.Janitor, logger.Component(log, "janitor"))
	go sweeper.Run(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             (cfg.Upload.MaxSizeMB + 1) * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger.Component(log, "http")))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:          db,
		Archive:     archiveSvc,
		Auth:        authSvc,
		Diagnostics: diagSvc,
		Session:     cfg.Auth,
		Gatherer:    promReg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Str("event", "http_shutdown_failed").Err(err).Msg("")
		}
		if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Str("event", "tracing_shutdown_failed").Err(err).Msg("")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("event", "http_listen").Str("addr", addr).Str("app_host", cfg.AppHost).Msg("")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Str("event", "http_listen_failed").Err(err).Msg("")
	}
	log.Info().Str("event", "http_stopped").Msg("")
}
