package service

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
)

const msgRequestCancelled = "request was cancelled"

// storeError maps report store failures onto client facing errors.
func storeError(err error, op string) error {
	var appErr *helper.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return helper.NewNotFoundError("report not found")
	case errors.Is(err, repository.ErrStatusConflict):
		return helper.NewInvalidTransitionError("report is no longer pending")
	case errors.Is(err, repository.ErrInvalidCursor):
		return helper.NewValidationError("invalid cursor")
	case errors.Is(err, entity.ErrInvalidReport), errors.Is(err, entity.ErrInvalidGeoPoint):
		return helper.NewValidationError(err.Error())
	case isCancelled(err):
		return helper.NewPersistenceError(msgRequestCancelled)
	}

	slog.Error("Report store operation failed", "op", op, "error", err)
	return helper.NewPersistenceError("")
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func requireSupervisor(ctx context.Context, authz SupervisorAuthorizer, userID string) error {
	if userID == "" {
		return helper.NewUnauthorizedError("")
	}

	ok, err := authz.IsSupervisor(ctx, userID)
	if err != nil {
		if isCancelled(err) {
			return helper.NewPersistenceError(msgRequestCancelled)
		}
		slog.Error("Failed to check supervisor role", "error", err, "userID", userID)
		return helper.NewPersistenceError("")
	}
	if !ok {
		return helper.NewForbiddenError("supervisor role required")
	}
	return nil
}
