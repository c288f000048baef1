package main

import (
	"GreenSnapAPI/internal/adapter"
	"GreenSnapAPI/internal/bootstrap"
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/websocket"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadAppConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := config.InitPostgres(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	gormDB, err := config.NewGorm(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to initialize gorm: %w", err)
	}
	if cfg.DBMigrate {
		if err := repository.NewUserRepository(gormDB).Migrate(ctx); err != nil {
			return err
		}
	}

	store, err := bootstrap.OpenStore(ctx, cfg, sqlDB)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Error("Error closing report store", "error", err)
		}
	}()

	redisAdapter, err := adapter.NewRedisAdapter(cfg)
	if err != nil {
		slog.Warn("Redis unavailable, continuing without shared rate limits and orphan queue", "error", err)
		redisAdapter = nil
	} else {
		defer redisAdapter.Close()
	}

	s3Client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	app := bootstrap.Init(bootstrap.Dependencies{
		Config:    cfg,
		Store:     store,
		DB:        gormDB,
		Redis:     redisAdapter,
		S3:        s3Client,
		Validator: config.NewValidator(),
		Registry:  registry,
		Hub:       hub,
	})
	defer app.RateLimiter.Stop()

	go recordPoolStats(ctx, app, sqlDB)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AppPort),
		Handler: app.Router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting GreenSnapAPI", "port", cfg.AppPort, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
