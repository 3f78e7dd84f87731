package bloodbank

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
)

// StockCache drops cached availability for a bank.
type StockCache interface {
	Invalidate(bankID int64)
}

type Service struct {
	repo  repository.BloodBankRepository
	cache StockCache
}

func NewService(repo repository.BloodBankRepository, cache StockCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create registers a bank owned by adminUserID.
func (s *Service) Create(ctx context.Context, adminUserID int64, req *model.CreateBloodBankRequest) (*model.BloodBank, error) {
	bank := &model.BloodBank{
		Name:          req.Name,
		City:          req.City,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		AdminUserID:   adminUserID,
	}
	if err := s.repo.Create(ctx, bank); err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Ctx(ctx).Info().Int64("blood_bank_id", bank.ID).Int64("admin_user_id", adminUserID).Msg("blood bank created")
	return bank, nil
}

func (s *Service) List(ctx context.Context) ([]*model.BloodBank, error) {
	banks, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return banks, nil
}

func (s *Service) ListPublic(ctx context.Context) ([]*model.BloodBankSummary, error) {
	banks, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return banks, nil
}

// Delete removes a bank. A bank owned by someone else looks the same as a
// missing one. Banks that hold inventory or donation history are kept.
func (s *Service) Delete(ctx context.Context, id, adminUserID int64) error {
	err := s.repo.DeleteOwned(ctx, id, adminUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("blood bank", err)
	}
	if errors.Is(err, repository.ErrReferenced) {
		return apperrors.Conflict("blood bank has inventory or donation history")
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	s.cache.Invalidate(id)

	log.Ctx(ctx).Info().Int64("blood_bank_id", id).Msg("blood bank deleted")
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
