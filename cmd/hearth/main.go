package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	hearth "github.com/hearth-erp/hearth-erp"
	"github.com/hearth-erp/hearth-erp/internal/app"
	"github.com/hearth-erp/hearth-erp/internal/assignments"
	"github.com/hearth-erp/hearth-erp/internal/catalog"
	"github.com/hearth-erp/hearth-erp/internal/documents"
	"github.com/hearth-erp/hearth-erp/internal/observability"
	"github.com/hearth-erp/hearth-erp/internal/platform/cache"
	"github.com/hearth-erp/hearth-erp/internal/platform/db"
	"github.com/hearth-erp/hearth-erp/internal/projects"
	"github.com/hearth-erp/hearth-erp/internal/teams"
	"github.com/hearth-erp/hearth-erp/internal/tracking"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, hearth.Migrations); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, ledger dashboard uncached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()

	projectsRepo := projects.NewRepository(pool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	documentsRepo := documents.NewRepository(pool)
	documentsService := documents.NewService(documentsRepo, projectsService, projectsService, catalogService)
	documentsHandler := documents.NewHandler(logger, documentsService, metrics)

	teamsRepo := teams.NewRepository(pool)
	teamsService := teams.NewService(teamsRepo, redisClient, logger)
	teamsHandler := teams.NewHandler(logger, teamsService)

	assignmentsRepo := assignments.NewRepository(pool)
	assignmentsService := assignments.NewService(assignmentsRepo, documentsService, projectsService, teamsService)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService)

	trackingRepo := tracking.NewRepository(pool)
	trackingService := tracking.NewService(trackingRepo, documentsService, cfg.TrackingEnforceForward)
	trackingHandler := tracking.NewHandler(logger, trackingService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ProjectsHandler:    projectsHandler,
		CatalogHandler:     catalogHandler,
		DocumentsHandler:   documentsHandler,
		AssignmentsHandler: assignmentsHandler,
		TeamsHandler:       teamsHandler,
		TrackingHandler:    trackingHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
