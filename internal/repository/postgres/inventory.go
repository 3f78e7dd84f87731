package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type inventoryRepository struct {
	BaseRepository
}

func NewInventoryRepository(base BaseRepository) repository.InventoryRepository {
	return &inventoryRepository{base}
}

func (r *inventoryRepository) AvailableByBank(ctx context.Context, bankID int64, today time.Time) ([]model.GroupTotal, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT blood_group, SUM(units_available) AS total_units
		FROM blood_inventory
		WHERE blood_bank_id = $1 AND status = 'available' AND expiry_date >= $2
		GROUP BY blood_group
		ORDER BY blood_group
	`
	totals := []model.GroupTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, bankID, model.DateOf(today)); err != nil {
		return nil, fmt.Errorf("failed to sum inventory: %w", err)
	}
	return totals, nil
}

func (r *inventoryRepository) Summary(ctx context.Context, today time.Time) ([]model.GroupTotal, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT blood_group, SUM(units_available) AS total_units
		FROM blood_inventory
		WHERE status = 'available' AND expiry_date >= $1
		GROUP BY blood_group
		ORDER BY blood_group
	`
	totals := []model.GroupTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, model.DateOf(today)); err != nil {
		return nil, fmt.Errorf("failed to summarize inventory: %w", err)
	}
	return totals, nil
}

func (r *inventoryRepository) ExpireBefore(ctx context.Context, today time.Time) (int64, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		UPDATE blood_inventory SET status = 'expired'
		WHERE status = 'available' AND expiry_date < $1
	`
	res, err := r.db.ExecContext(ctx, query, model.DateOf(today))
	if err != nil {
		return 0, fmt.Errorf("failed to expire inventory: %w", err)
	}
	return res.RowsAffected()
}
