package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type donationRepository struct {
	BaseRepository
}

func NewDonationRepository(base BaseRepository) repository.DonationRepository {
	return &donationRepository{base}
}

func (r *donationRepository) ListByUser(ctx context.Context, userID int64) ([]*model.DonationHistoryEntry, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT h.donation_date, h.quantity_units, b.name AS blood_bank_name, b.city
		FROM donation_history h
		JOIN donors d ON d.donor_id = h.donor_id
		JOIN blood_banks b ON b.blood_bank_id = h.blood_bank_id
		WHERE d.user_id = $1
		ORDER BY h.donation_date DESC, h.donation_id DESC
	`
	history := []*model.DonationHistoryEntry{}
	if err := r.db.SelectContext(ctx, &history, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return history, nil
}
