package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
)

// OutboxStore is the slice of the outbox repository the relay worker needs.
type OutboxStore interface {
	ProcessPending(ctx context.Context, limit int, fn func(*model.OutboxEvent) error) (processed, failed int, err error)
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
