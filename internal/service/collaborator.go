package service

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/websocket"
	"context"
)

type SupervisorAuthorizer interface {
	IsSupervisor(ctx context.Context, userID string) (bool, error)
}

type ImageHost interface {
	Upload(ctx context.Context, data []byte, folder string) (entity.PhotoRef, error)
	Delete(ctx context.Context, deleteKey string) error
}

type UserDirectory interface {
	GetSummary(ctx context.Context, userID string) (*entity.OwnerSummary, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetRole(ctx context.Context, id string) (string, error)
}

// OrphanQueue records delete keys whose cleanup failed so the scheduler can retry.
type OrphanQueue interface {
	Add(ctx context.Context, deleteKey string) error
}

type Notifier interface {
	BroadcastToSupervisors(event websocket.Event)
	BroadcastToUser(userID string, event websocket.Event)
}
