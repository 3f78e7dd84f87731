package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type unitOfWork struct {
	BaseRepository
}

// NewUnitOfWork returns a UnitOfWork whose transactions share the query
// timeout of base.
func NewUnitOfWork(base BaseRepository) repository.UnitOfWork {
	return &unitOfWork{base}
}

func (u *unitOfWork) WithinTx(ctx context.Context, fn func(repository.TxStore) error) error {
	ctx, cancel := u.bounded(ctx)
	defer cancel()

	return u.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

type txStore struct {
	tx *sqlx.Tx
}

func (s *txStore) GetDonorForUpdate(ctx context.Context, userID int64) (*model.Donor, error) {
	var donor model.Donor
	query := `SELECT ` + donorColumns + ` FROM donors WHERE user_id = $1 FOR UPDATE`
	if err := s.tx.GetContext(ctx, &donor, query, userID); err != nil {
		return nil, fmt.Errorf("failed to lock donor: %w", mapNotFound(err))
	}
	return &donor, nil
}

func (s *txStore) BloodBankExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM blood_banks WHERE blood_bank_id = $1)`
	if err := s.tx.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check blood bank: %w", err)
	}
	return exists, nil
}

func (s *txStore) InsertDonation(ctx context.Context, record *model.DonationRecord) error {
	query := `
		INSERT INTO donation_history (donor_id, blood_bank_id, donation_date, quantity_units)
		VALUES ($1, $2, $3, $4)
		RETURNING donation_id
	`
	err := s.tx.QueryRowxContext(ctx, query,
		record.DonorID, record.BloodBankID, record.DonationDate, record.QuantityUnits,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	return nil
}

func (s *txStore) InsertInventoryUnit(ctx context.Context, unit *model.InventoryUnit) error {
	query := `
		INSERT INTO blood_inventory (
			blood_bank_id, blood_group, units_available, collection_date, expiry_date, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING inventory_id
	`
	err := s.tx.QueryRowxContext(ctx, query,
		unit.BloodBankID, unit.BloodGroup, unit.UnitsAvailable,
		unit.CollectionDate, unit.ExpiryDate, unit.Status,
	).Scan(&unit.ID)
	if err != nil {
		return fmt.Errorf("failed to insert inventory: %w", err)
	}
	return nil
}

func (s *txStore) ApplyDonation(ctx context.Context, donorID int64, date time.Time, points int) (int, error) {
	query := `
		UPDATE donors
		SET eligible = FALSE,
			last_donation_date = $1,
			points = points + $2,
			total_donations = total_donations + 1
		WHERE donor_id = $3
		RETURNING total_donations
	`
	var total int
	if err := s.tx.GetContext(ctx, &total, query, date, points, donorID); err != nil {
		return 0, fmt.Errorf("failed to update donor: %w", mapNotFound(err))
	}
	return total, nil
}

func (s *txStore) InsertBadge(ctx context.Context, badge *model.Badge) error {
	query := `
		INSERT INTO donor_badges (donor_id, badge_name, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (donor_id, badge_name) DO NOTHING
	`
	if _, err := s.tx.ExecContext(ctx, query, badge.DonorID, badge.BadgeName, badge.AwardedAt); err != nil {
		return fmt.Errorf("failed to insert badge: %w", err)
	}
	return nil
}

func (s *txStore) InsertRequest(ctx context.Context, req *model.BloodRequest) error {
	query := `
		INSERT INTO blood_requests (user_id, blood_group, quantity_units, urgency, city, status, request_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING request_id
	`
	err := s.tx.QueryRowxContext(ctx, query,
		req.UserID, req.BloodGroup, req.QuantityUnits, req.Urgency, req.City, req.Status, req.RequestDate,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (s *txStore) GetRequestForUpdate(ctx context.Context, id int64) (*model.BloodRequest, error) {
	var req model.BloodRequest
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE request_id = $1 FOR UPDATE`
	if err := s.tx.GetContext(ctx, &req, query, id); err != nil {
		return nil, fmt.Errorf("failed to lock request: %w", mapNotFound(err))
	}
	return &req, nil
}

func (s *txStore) EarliestUnitForUpdate(ctx context.Context, bloodGroup string, today time.Time) (*model.InventoryUnit, error) {
	query := `
		SELECT inventory_id, blood_bank_id, blood_group, units_available,
			collection_date, expiry_date, status
		FROM blood_inventory
		WHERE blood_group = $1 AND status = 'available' AND expiry_date >= $2
		ORDER BY expiry_date, inventory_id
		LIMIT 1
		FOR UPDATE
	`
	var unit model.InventoryUnit
	if err := s.tx.GetContext(ctx, &unit, query, bloodGroup, model.DateOf(today)); err != nil {
		return nil, fmt.Errorf("failed to lock inventory: %w", mapNotFound(err))
	}
	return &unit, nil
}

func (s *txStore) DecrementUnit(ctx context.Context, unitID int64, qty int) error {
	query := `
		UPDATE blood_inventory SET units_available = units_available - $1
		WHERE inventory_id = $2 AND units_available >= $1
	`
	res, err := s.tx.ExecContext(ctx, query, qty, unitID)
	if err != nil {
		return fmt.Errorf("failed to decrement inventory: %w", err)
	}
	return requireRow(res)
}

func (s *txStore) SetRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	res, err := s.tx.ExecContext(ctx, `UPDATE blood_requests SET status = $1 WHERE request_id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set request status: %w", err)
	}
	return requireRow(res)
}

func (s *txStore) InsertOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	_, err := s.tx.ExecContext(ctx, insertOutbox,
		event.ID, event.EventType, []byte(event.Payload), event.Status, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
