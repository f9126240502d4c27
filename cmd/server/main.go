package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/config"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/handler"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/repository"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/server"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/telemetry"
)

func main() {
	// Create a basic logger for startup (before OTel is initialized)
	startupLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		startupLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	startupLogger.Info("starting application",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("topology", "monolith"),
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

	var opts []repository.Option
	if cfg.SeedSampleTasks {
		opts = append(opts, repository.WithSampleTasks())
	}
	store := repository.NewTaskStore(opts...)

	metrics, err := telemetry.NewMetrics(tel.Meter, store.Count)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create metrics", slog.Any("error", err))
		os.Exit(1)
	}

	tasks := handler.StoreTasks(store)
	router := server.NewRouter(server.Options{
		Logger:  logger,
		Metrics: metrics,
		API:     tasks,
		Pages:   handler.NewPageHandler(tasks, logger, "Task Tracker"),
	})

	if err := server.ListenAndRun(ctx, server.New(":"+cfg.ServerPort, router), logger); err != nil {
		logger.ErrorContext(ctx, "server error", slog.Any("error", err))
		os.Exit(1)
	}
}
