package main

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/constant"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/repository"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	username := flag.String("username", "", "supervisor username")
	email := flag.String("email", "", "supervisor email")
	password := flag.String("password", "", "supervisor password (min 8 characters)")
	flag.Parse()

	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadAppConfig()

	sqlDB, err := config.InitPostgres(cfg)
	if err != nil {
		slog.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	gormDB, err := config.NewGorm(sqlDB)
	if err != nil {
		slog.Error("Failed to initialize gorm", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepository(gormDB)
	if err := users.Migrate(ctx); err != nil {
		slog.Error("Failed to migrate users", "error", err)
		os.Exit(1)
	}

	normalizedEmail := strings.ToLower(strings.TrimSpace(*email))
	if _, err := users.GetByEmail(ctx, normalizedEmail); err == nil {
		slog.Error("A user with this email already exists", "email", normalizedEmail)
		os.Exit(1)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		slog.Error("Failed to check existing user", "error", err)
		os.Exit(1)
	}

	hash, err := helper.HashPassword(*password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		os.Exit(1)
	}

	u := &entity.User{
		ID:           helper.NewID(),
		Username:     strings.TrimSpace(*username),
		Email:        normalizedEmail,
		PasswordHash: hash,
		Role:         constant.RoleSupervisor,
		ProfileImage: constant.DefaultProfileImage,
		IsVerified:   true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := users.Create(ctx, u); err != nil {
		slog.Error("Failed to create supervisor", "error", err)
		os.Exit(1)
	}

	token, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTExp, u.ID)
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		os.Exit(1)
	}

	slog.Info("Supervisor created", "userID", u.ID, "username", u.Username)
	fmt.Println(token)
}
