package request

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

const msgNotEmergency = "matching only applies to emergency requests"

// StockCache is told when a bank's stock changes.
type StockCache interface {
	Invalidate(bankID int64)
}

type Service struct {
	uow      repository.UnitOfWork
	requests repository.BloodRequestRepository
	users    repository.UserRepository
	donors   repository.DonorRepository
	cache    StockCache
	clock    model.Clock
	metrics  *metrics.Metrics
}

func NewService(
	uow repository.UnitOfWork,
	requests repository.BloodRequestRepository,
	users repository.UserRepository,
	donors repository.DonorRepository,
	cache StockCache,
	clock model.Clock,
	m *metrics.Metrics,
) *Service {
	return &Service{
		uow:      uow,
		requests: requests,
		users:    users,
		donors:   donors,
		cache:    cache,
		clock:    clock,
		metrics:  m,
	}
}

// Create files a pending request. A missing city falls back to the
// requester's profile city; emergencies also queue an alert event.
func (s *Service) Create(ctx context.Context, userID int64, in *model.CreateBloodRequest) (*model.BloodRequest, error) {
	if !model.ValidBloodGroup(in.BloodGroup) {
		return nil, apperrors.BadRequest("invalid blood group", nil)
	}
	if in.QuantityUnits <= 0 {
		return nil, apperrors.BadRequest("quantity_units must be greater than 0", nil)
	}

	urgency := in.Urgency
	switch urgency {
	case "":
		urgency = model.UrgencyNormal
	case model.UrgencyNormal, model.UrgencyEmergency:
	default:
		return nil, apperrors.BadRequest("urgency must be normal or emergency", nil)
	}

	city := in.City
	if city == nil || *city == "" {
		user, err := s.users.Get(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		city = nil
		if user != nil {
			city = user.City
		}
	}

	now := s.clock()
	req := &model.BloodRequest{
		UserID:        userID,
		BloodGroup:    in.BloodGroup,
		QuantityUnits: in.QuantityUnits,
		Urgency:       urgency,
		City:          city,
		Status:        model.RequestPending,
		RequestDate:   now,
	}

	err := s.uow.WithinTx(ctx, func(tx repository.TxStore) error {
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}
		if urgency != model.UrgencyEmergency {
			return nil
		}
		event, err := model.NewOutboxEvent(model.EventBloodRequestEmergency, model.EmergencyRequestEvent{
			RequestID:     req.ID,
			BloodGroup:    req.BloodGroup,
			QuantityUnits: req.QuantityUnits,
			City:          req.City,
		}, now)
		if err != nil {
			return err
		}
		return tx.InsertOutboxEvent(ctx, event)
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Ctx(ctx).Info().
		Int64("request_id", req.ID).
		Str("blood_group", req.BloodGroup).
		Str("urgency", string(req.Urgency)).
		Msg("blood request created")
	return req, nil
}

// ListAll returns every request, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*model.BloodRequest, error) {
	reqs, err := s.requests.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return reqs, nil
}

// ListMine returns the caller's requests, newest first.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]*model.BloodRequest, error) {
	reqs, err := s.requests.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return reqs, nil
}

// SetStatus approves or rejects a pending request.
func (s *Service) SetStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	if status != model.RequestApproved && status != model.RequestRejected {
		return apperrors.BadRequest("status must be approved or rejected", nil)
	}

	req, err := s.requests.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("request", err)
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	if !req.Status.CanTransition(status) {
		return apperrors.Conflict("request must be pending")
	}

	// The conditional update loses if another caller moved the request first.
	err = s.requests.UpdateStatusFrom(ctx, id, model.RequestPending, status)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Conflict("request must be pending")
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	log.Ctx(ctx).Info().Int64("request_id", id).Str("status", string(status)).Msg("request status updated")
	return nil
}

type fulfilledEvent struct {
	RequestID     int64     `json:"request_id"`
	InventoryID   int64     `json:"inventory_id"`
	BloodBankID   int64     `json:"blood_bank_id"`
	BloodGroup    string    `json:"blood_group"`
	QuantityUnits int       `json:"quantity_units"`
	FulfilledAt   time.Time `json:"fulfilled_at"`
}

// Fulfill serves an approved request from the single earliest-expiring
// usable unit of its blood group. Units are never combined across rows.
func (s *Service) Fulfill(ctx context.Context, id int64) error {
	now := s.clock()
	today := model.DateOf(now)
	var bankID int64

	err := s.uow.WithinTx(ctx, func(tx repository.TxStore) error {
		req, err := tx.GetRequestForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("request", err)
		}
		if err != nil {
			return err
		}
		if req.Status != model.RequestApproved {
			return apperrors.Conflict("request must be approved first")
		}

		unit, err := tx.EarliestUnitForUpdate(ctx, req.BloodGroup, today)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.InsufficientStock("insufficient blood stock")
		}
		if err != nil {
			return err
		}
		if unit.UnitsAvailable < req.QuantityUnits {
			return apperrors.InsufficientStock("insufficient blood stock")
		}

		if err := tx.DecrementUnit(ctx, unit.ID, req.QuantityUnits); err != nil {
			return err
		}
		if err := tx.SetRequestStatus(ctx, req.ID, model.RequestFulfilled); err != nil {
			return err
		}

		event, err := model.NewOutboxEvent(model.EventBloodRequestFulfilled, fulfilledEvent{
			RequestID:     req.ID,
			InventoryID:   unit.ID,
			BloodBankID:   unit.BloodBankID,
			BloodGroup:    req.BloodGroup,
			QuantityUnits: req.QuantityUnits,
			FulfilledAt:   now,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.InsertOutboxEvent(ctx, event); err != nil {
			return err
		}

		bankID = unit.BloodBankID
		return nil
	})
	if err != nil {
		appErr := apperrors.As(err)
		s.metrics.Fulfilled(failureReason(appErr))
		return appErr
	}

	s.cache.Invalidate(bankID)
	s.metrics.Fulfilled("")
	log.Ctx(ctx).Info().Int64("request_id", id).Int64("blood_bank_id", bankID).Msg("request fulfilled")
	return nil
}

func failureReason(err *apperrors.AppError) string {
	switch err.Code {
	case apperrors.ErrNotFound:
		return "not_found"
	case apperrors.ErrConflict:
		return "not_approved"
	case apperrors.ErrInsufficientStock:
		return "insufficient_stock"
	default:
		return "error"
	}
}

// MatchDonors lists eligible donors in the request's city with its blood
// group. Only emergency requests are matched.
func (s *Service) MatchDonors(ctx context.Context, id int64) (*model.MatchResult, error) {
	req, err := s.requests.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("request", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := &model.MatchResult{RequestID: id, MatchedDonors: []model.DonorMatch{}}
	if req.Urgency != model.UrgencyEmergency {
		result.Message = msgNotEmergency
		return result, nil
	}
	if req.City == nil {
		return result, nil
	}

	matches, err := s.donors.FindMatches(ctx, req.BloodGroup, *req.City)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	result.MatchedDonors = matches
	return result, nil
}

// CountPending returns how many requests await review.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	n, err := s.requests.CountByStatus(ctx, model.RequestPending)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
