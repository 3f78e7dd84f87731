package donation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
)

// StockCache is told when a bank's stock changes.
type StockCache interface {
	Invalidate(bankID int64)
}

type Service struct {
	uow     repository.UnitOfWork
	history repository.DonationRepository
	cache   StockCache
	clock   model.Clock
	metrics *metrics.Metrics
}

func NewService(uow repository.UnitOfWork, history repository.DonationRepository, cache StockCache, clock model.Clock, m *metrics.Metrics) *Service {
	return &Service{
		uow:     uow,
		history: history,
		cache:   cache,
		clock:   clock,
		metrics: m,
	}
}

type donationEvent struct {
	DonationID    int64     `json:"donation_id"`
	DonorID       int64     `json:"donor_id"`
	BloodBankID   int64     `json:"blood_bank_id"`
	BloodGroup    string    `json:"blood_group"`
	QuantityUnits int       `json:"quantity_units"`
	Emergency     bool      `json:"emergency"`
	Badge         *string   `json:"badge,omitempty"`
	DonationDate  time.Time `json:"donation_date"`
}

// RecordDonation stores a donation, adds the collected units to the bank,
// rewards the donor and starts their cooldown. Every write shares one
// transaction, so a failure anywhere leaves no trace.
func (s *Service) RecordDonation(ctx context.Context, userID int64, req *model.DonateRequest) (*model.DonationResult, error) {
	if req.QuantityUnits <= 0 {
		return nil, apperrors.BadRequest("quantity_units must be greater than 0", nil)
	}

	now := s.clock()
	today := model.DateOf(now)
	points := model.DonationPoints(req.Emergency)
	result := &model.DonationResult{PointsAwarded: points}

	err := s.uow.WithinTx(ctx, func(tx repository.TxStore) error {
		donor, err := tx.GetDonorForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("donor", err)
		}
		if err != nil {
			return err
		}
		if !donor.Eligible {
			return apperrors.Conflict("donor is not eligible")
		}

		exists, err := tx.BloodBankExists(ctx, req.BloodBankID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("blood bank", nil)
		}

		record := &model.DonationRecord{
			DonorID:       donor.ID,
			BloodBankID:   req.BloodBankID,
			DonationDate:  today,
			QuantityUnits: req.QuantityUnits,
		}
		if err := tx.InsertDonation(ctx, record); err != nil {
			return err
		}

		unit := &model.InventoryUnit{
			BloodBankID:    req.BloodBankID,
			BloodGroup:     donor.BloodGroup,
			UnitsAvailable: req.QuantityUnits,
			CollectionDate: today,
			ExpiryDate:     today.AddDate(0, 0, model.ShelfLifeDays),
			Status:         model.InventoryAvailable,
		}
		if err := tx.InsertInventoryUnit(ctx, unit); err != nil {
			return err
		}

		total, err := tx.ApplyDonation(ctx, donor.ID, today, points)
		if err != nil {
			return err
		}

		if name, ok := model.BadgeForTotal(total); ok {
			if err := tx.InsertBadge(ctx, &model.Badge{DonorID: donor.ID, BadgeName: name, AwardedAt: now}); err != nil {
				return err
			}
			result.BadgeAwarded = &name
		}

		event, err := model.NewOutboxEvent(model.EventDonationRecorded, donationEvent{
			DonationID:    record.ID,
			DonorID:       donor.ID,
			BloodBankID:   req.BloodBankID,
			BloodGroup:    donor.BloodGroup,
			QuantityUnits: req.QuantityUnits,
			Emergency:     req.Emergency,
			Badge:         result.BadgeAwarded,
			DonationDate:  today,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.InsertOutboxEvent(ctx, event); err != nil {
			return err
		}

		result.DonationID = record.ID
		return nil
	})
	if err != nil {
		return nil, apperrors.As(err)
	}

	s.cache.Invalidate(req.BloodBankID)
	s.metrics.Donation(req.Emergency, result.BadgeAwarded)

	l := log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("donation_id", result.DonationID).
		Int("points", points)
	if result.BadgeAwarded != nil {
		l = l.Str("badge", *result.BadgeAwarded)
	}
	l.Msg("donation recorded")

	return result, nil
}

// History lists the caller's donations, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]*model.DonationHistoryEntry, error) {
	entries, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}
