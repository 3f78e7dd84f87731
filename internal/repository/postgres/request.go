package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type bloodRequestRepository struct {
	BaseRepository
}

func NewBloodRequestRepository(base BaseRepository) repository.BloodRequestRepository {
	return &bloodRequestRepository{base}
}

const requestColumns = `request_id, user_id, blood_group, quantity_units, urgency, city, status, request_date`

func (r *bloodRequestRepository) Get(ctx context.Context, id int64) (*model.BloodRequest, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var req model.BloodRequest
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE request_id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, fmt.Errorf("failed to get request: %w", mapNotFound(err))
	}
	return &req, nil
}

func (r *bloodRequestRepository) List(ctx context.Context) ([]*model.BloodRequest, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	reqs := []*model.BloodRequest{}
	query := `SELECT ` + requestColumns + ` FROM blood_requests ORDER BY request_date DESC, request_id DESC`
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

func (r *bloodRequestRepository) ListByUser(ctx context.Context, userID int64) ([]*model.BloodRequest, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	reqs := []*model.BloodRequest{}
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE user_id = $1 ORDER BY request_date DESC, request_id DESC`
	if err := r.db.SelectContext(ctx, &reqs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

func (r *bloodRequestRepository) UpdateStatusFrom(ctx context.Context, id int64, from, to model.RequestStatus) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `UPDATE blood_requests SET status = $1 WHERE request_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return requireRow(res)
}

func (r *bloodRequestRepository) CountByStatus(ctx context.Context, status model.RequestStatus) (int, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blood_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}
