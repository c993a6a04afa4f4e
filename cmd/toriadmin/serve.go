package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/toribox/toriadmin/internal/api"
	"github.com/toribox/toriadmin/internal/config"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/metrics"
	"github.com/toribox/toriadmin/internal/models"
	"github.com/toribox/toriadmin/internal/scheduler"
	"github.com/toribox/toriadmin/internal/services/toribox"
	"github.com/toribox/toriadmin/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP API and the background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(ctx)
		},
	}
}

func runServer(ctx *commandContext) error {
	cfg := ctx.config

	// The server logs to stdout like any service
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting toriadmin")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	tracerProvider := newTracerProvider(logger)
	otel.SetTracerProvider(tracerProvider)
	defer tracerProvider.Shutdown(context.Background())

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	m := metrics.New()

	ctrls, err := newServeControllers(cfg, db, m, tracerProvider, logger)
	if err != nil {
		return err
	}
	logger.Info("Controllers initialized")

	sched := scheduler.NewScheduler(
		func(jobCtx context.Context) error {
			_, err := ctrls.Dashboard.Refresh(jobCtx)
			return err
		},
		func(jobCtx context.Context) error {
			return ctrls.Catalog.Warm(jobCtx, ctx.token())
		},
		cfg.StatsSchedule,
		time.Duration(cfg.MovieCacheMinutes)*time.Minute,
		logger,
	)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.NewServer(cfg, ctrls, db, m, logger)

	serverCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(serverCtx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("toriadmin is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("toriadmin stopped")
	return nil
}

// newServeControllers wires the ToriBox client and the controllers onto the
// server logger, so API client logs share the service's stream.
func newServeControllers(cfg *config.Config, db *models.Database, m *metrics.Metrics, tp trace.TracerProvider, logger *logrus.Logger) (api.Controllers, error) {
	client, err := toribox.NewClient(cfg, logger)
	if err != nil {
		return api.Controllers{}, fmt.Errorf("failed to create ToriBox client: %w", err)
	}

	catalog := controllers.NewCatalog(client, time.Duration(cfg.MovieCacheMinutes)*time.Minute, m, logger)
	reconciler := episodes.NewReconciler(client, logger,
		episodes.WithObserver(m),
		episodes.WithTracerProvider(tp),
	)
	episodeCtrl := controllers.NewEpisodeController(reconciler, catalog, logger)

	return api.Controllers{
		Catalog:   catalog,
		Episodes:  episodeCtrl,
		Uploads:   controllers.NewUploadController(client, db, catalog, episodeCtrl, m, logger),
		Dashboard: controllers.NewDashboardController(client, db, m, logger),
	}, nil
}
