package main

import (
	"GreenSnapAPI/internal/adapter"
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/scheduler"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadAppConfig()

	redisAdapter, err := adapter.NewRedisAdapter(cfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisAdapter.Close()

	s3Client, err := config.NewS3Client(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize S3 client", "error", err)
		os.Exit(1)
	}

	srv := scheduler.New(cfg, repository.NewOrphanAssetRepository(redisAdapter), adapter.NewStorageAdapter(cfg, s3Client))

	if err := srv.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down scheduler...")
	srv.Stop()
}
