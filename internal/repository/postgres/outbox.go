package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

const insertOutbox = `
	INSERT INTO outbox_events (id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5)
`

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, insertOutbox,
		event.ID, event.EventType, []byte(event.Payload), event.Status, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) ProcessPending(ctx context.Context, limit int, fn func(*model.OutboxEvent) error) (int, int, error) {
	var processed, failed int

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, event_type, payload, status, error_message, retry_count, created_at, processed_at
			FROM outbox_events
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`
		var events []*model.OutboxEvent
		if err := tx.SelectContext(ctx, &events, query, limit); err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, event := range events {
			if pubErr := fn(event); pubErr != nil {
				msg := pubErr.Error()
				_, err := tx.ExecContext(ctx, `
					UPDATE outbox_events
					SET status = 'failed', error_message = $1, retry_count = retry_count + 1
					WHERE id = $2
				`, msg, event.ID)
				if err != nil {
					return fmt.Errorf("failed to mark event failed: %w", err)
				}
				failed++
				continue
			}

			_, err := tx.ExecContext(ctx, `
				UPDATE outbox_events SET status = 'processed', processed_at = NOW()
				WHERE id = $1
			`, event.ID)
			if err != nil {
				return fmt.Errorf("failed to mark event processed: %w", err)
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return processed, failed, nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
