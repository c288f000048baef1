package service

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/constant"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
)

type AuthService struct {
	cfg   *config.AppConfig
	users UserReader
}

func NewAuthService(cfg *config.AppConfig, users UserReader) *AuthService {
	return &AuthService{
		cfg:   cfg,
		users: users,
	}
}

// VerifyUser validates a bearer token and loads the user it was issued to.
func (s *AuthService) VerifyUser(ctx context.Context, tokenString string) (*model.UserDTO, error) {
	claims, err := helper.ParseJWT(s.cfg.JWTSecret, tokenString)
	if err != nil {
		return nil, helper.NewUnauthorizedError("invalid or expired token")
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, helper.NewUnauthorizedError("invalid or expired token")
		}
		slog.Error("Failed to load token user", "error", err, "userID", claims.UserID)
		return nil, helper.NewPersistenceError("")
	}

	return model.ToUserDTO(u), nil
}

// IsSupervisor looks the role up on every call so revocations apply immediately.
func (s *AuthService) IsSupervisor(ctx context.Context, userID string) (bool, error) {
	role, err := s.users.GetRole(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == constant.RoleSupervisor, nil
}

func (s *AuthService) IssueToken(userID string) (string, error) {
	return helper.GenerateJWT(s.cfg.JWTSecret, s.cfg.JWTExp, userID)
}
