package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fileax/docs"
	"fileax/internal/config"
	"fileax/internal/database"
	"fileax/internal/database/migration"
	handlers "fileax/internal/http/handler"
	"fileax/internal/http/middleware"
	"fileax/internal/logging"
	"fileax/internal/origin"
	"fileax/internal/otel"
	"fileax/internal/repository"
	"fileax/internal/repository/postgres"
	"fileax/internal/service"
	"fileax/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// @title file.ax API
// @version 1.0
// @description Anonymous file hosting: upload one file, get back a public URL.
// @BasePath /
func main() {
	log := logging.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config_invalid", logging.Fields{"error": err})
		os.Exit(1)
	}
	loc := cfg.Location()
	log = logging.New(os.Stdout, loc)

	if err := run(cfg, log); err != nil {
		log.Error("server_stopped", logging.Fields{"error": err})
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", logging.Fields{"error": err})
		}
	}()

	// Disk by default; MinIO when STORAGE_DRIVER=minio
	store, err := storage.New(cfg)
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithLogger(log)}

	// The audit ledger is optional and never consulted when serving files.
	var db *sql.DB
	var audit repository.UploadRepository
	if cfg.Database.Enabled() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
		audit = postgres.NewUploadPostgres(db)
		opts = append(opts, service.WithAudit(audit))
	}

	files := service.NewFileService(store, opts...)

	resolver, err := origin.New(cfg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.MaxUploadBytes),
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == middleware.MetricsPath
	})))
	// RequestID adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(os.Stdout, log.Location()))

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom, err := middleware.NewPrometheusMiddleware(reg)
		if err != nil {
			return err
		}
		app.Use(prom.Handler())
		app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	} else {
		app.Use(middleware.Noop())
	}

	handlers.RegisterRoutes(app, handlers.Deps{
		Files:  files,
		Origin: resolver,
		DB:     db,
		Audit:  audit,
		Log:    log,
	})

	app.Get(handlers.SwaggerPrefix+"*", handlers.Swagger(docs.SwaggerInfo, resolver))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", logging.Fields{
			"port":           cfg.Port,
			"storage_driver": cfg.Storage.Driver,
			"origin_policy":  cfg.OriginPolicy,
			"audit_enabled":  audit != nil,
		})
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down", nil)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
