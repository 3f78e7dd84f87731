package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type donorRepository struct {
	BaseRepository
}

func NewDonorRepository(base BaseRepository) repository.DonorRepository {
	return &donorRepository{base}
}

const donorColumns = `donor_id, user_id, blood_group, eligible, last_donation_date, points, total_donations, created_at`

func (r *donorRepository) Create(ctx context.Context, donor *model.Donor) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		INSERT INTO donors (user_id, blood_group, eligible)
		VALUES ($1, $2, $3)
		RETURNING donor_id, points, total_donations, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, donor.UserID, donor.BloodGroup, donor.Eligible).
		Scan(&donor.ID, &donor.Points, &donor.TotalDonations, &donor.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", err)
	}
	return nil
}

func (r *donorRepository) GetByUserID(ctx context.Context, userID int64) (*model.Donor, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var donor model.Donor
	query := `SELECT ` + donorColumns + ` FROM donors WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &donor, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get donor: %w", mapNotFound(err))
	}
	return &donor, nil
}

func (r *donorRepository) ListBadges(ctx context.Context, donorID int64) ([]string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	badges := []string{}
	query := `SELECT badge_name FROM donor_badges WHERE donor_id = $1 ORDER BY awarded_at, badge_name`
	if err := r.db.SelectContext(ctx, &badges, query, donorID); err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (r *donorRepository) ResetEligibility(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		UPDATE donors SET eligible = TRUE
		WHERE eligible = FALSE AND last_donation_date <= $1
	`
	res, err := r.db.ExecContext(ctx, query, model.DateOf(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to reset eligibility: %w", err)
	}
	return res.RowsAffected()
}

func (r *donorRepository) FindMatches(ctx context.Context, bloodGroup, city string) ([]model.DonorMatch, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT d.donor_id, u.full_name, u.phone, u.email
		FROM donors d
		JOIN users u ON u.user_id = d.user_id
		WHERE d.blood_group = $1 AND u.city = $2 AND d.eligible = TRUE
		ORDER BY d.donor_id
	`
	matches := []model.DonorMatch{}
	if err := r.db.SelectContext(ctx, &matches, query, bloodGroup, city); err != nil {
		return nil, fmt.Errorf("failed to match donors: %w", err)
	}
	return matches, nil
}
