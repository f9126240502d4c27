package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/board"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/client"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/config"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/handler"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/server"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/telemetry"
)

func main() {
	startupLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		startupLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	startupLogger.Info("starting application",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.WebPort),
		slog.String("topology", "web"),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, telemetry.Settings{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Environment:  cfg.Environment,
		LogLevel:     cfg.LogLevel,
	})
	if err != nil {
		startupLogger.Error("failed to initialize telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			startupLogger.Error("failed to shutdown telemetry", slog.Any("error", err))
		}
	}()
	logger := tel.Logger

	api, err := client.New(cfg.APIBaseURL, cfg.APITimeout())
	if err != nil {
		logger.ErrorContext(ctx, "failed to create API client", slog.Any("error", err))
		os.Exit(1)
	}

	// The client owns no task store, so there is no task count gauge.
	metrics, err := telemetry.NewMetrics(tel.Meter, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create metrics", slog.Any("error", err))
		os.Exit(1)
	}

	router := server.NewRouter(server.Options{
		Logger:  logger,
		Metrics: metrics,
		Pages:   handler.NewPageHandler(board.New(api, logger), logger, "Task Tracker (client)"),
	})

	if err := server.ListenAndRun(ctx, server.New(":"+cfg.WebPort, router), logger); err != nil {
		logger.ErrorContext(ctx, "server error", slog.Any("error", err))
		os.Exit(1)
	}
}
