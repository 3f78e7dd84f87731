package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type bloodBankRepository struct {
	BaseRepository
}

func NewBloodBankRepository(base BaseRepository) repository.BloodBankRepository {
	return &bloodBankRepository{base}
}

func (r *bloodBankRepository) Create(ctx context.Context, bank *model.BloodBank) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		INSERT INTO blood_banks (name, city, address, contact_number, admin_user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING blood_bank_id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		bank.Name, bank.City, bank.Address, bank.ContactNumber, bank.AdminUserID,
	).Scan(&bank.ID, &bank.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create blood bank: %w", err)
	}
	return nil
}

func (r *bloodBankRepository) Get(ctx context.Context, id int64) (*model.BloodBank, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT b.blood_bank_id, b.name, b.city, b.address, b.contact_number,
			b.admin_user_id, u.full_name AS admin_name, b.created_at
		FROM blood_banks b
		JOIN users u ON u.user_id = b.admin_user_id
		WHERE b.blood_bank_id = $1
	`
	var bank model.BloodBank
	if err := r.db.GetContext(ctx, &bank, query, id); err != nil {
		return nil, fmt.Errorf("failed to get blood bank: %w", mapNotFound(err))
	}
	return &bank, nil
}

func (r *bloodBankRepository) List(ctx context.Context) ([]*model.BloodBank, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT b.blood_bank_id, b.name, b.city, b.address, b.contact_number,
			b.admin_user_id, u.full_name AS admin_name, b.created_at
		FROM blood_banks b
		JOIN users u ON u.user_id = b.admin_user_id
		ORDER BY b.blood_bank_id
	`
	banks := []*model.BloodBank{}
	if err := r.db.SelectContext(ctx, &banks, query); err != nil {
		return nil, fmt.Errorf("failed to list blood banks: %w", err)
	}
	return banks, nil
}

func (r *bloodBankRepository) ListSummaries(ctx context.Context) ([]*model.BloodBankSummary, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	banks := []*model.BloodBankSummary{}
	query := `SELECT blood_bank_id, name, city FROM blood_banks ORDER BY name`
	if err := r.db.SelectContext(ctx, &banks, query); err != nil {
		return nil, fmt.Errorf("failed to list blood banks: %w", err)
	}
	return banks, nil
}

func (r *bloodBankRepository) DeleteOwned(ctx context.Context, id, adminUserID int64) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `DELETE FROM blood_banks WHERE blood_bank_id = $1 AND admin_user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, adminUserID)
	if isForeignKeyViolation(err) {
		return repository.ErrReferenced
	}
	if err != nil {
		return fmt.Errorf("failed to delete blood bank: %w", err)
	}
	return requireRow(res)
}

func (r *bloodBankRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blood_banks`); err != nil {
		return 0, fmt.Errorf("failed to count blood banks: %w", err)
	}
	return n, nil
}
