package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/definitie-platform/lookup-server/internal/config"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/logger"
	_ "github.com/definitie-platform/lookup-server/internal/infrastructure/metrics" // Register Prometheus metrics
	"github.com/definitie-platform/lookup-server/internal/infrastructure/observability"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HTTPServer
}

func init() {
	// Console logger until configuration says otherwise
	logger.GetLogger()
}

func (app *Application) Start(ctx context.Context) error {
	return app.httpServer.Run(ctx)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	appLog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize logger")
	}
	appLog.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Int("workers", cfg.Workers).
		Msg("starting lookup server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, appLog)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	application, err := CreateApplication()
	if err != nil {
		log.Fatal().Err(err).Msg("create application")
	}

	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}
