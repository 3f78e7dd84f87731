package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
)

// Service answers stock queries. Per-bank availability is cached for ttl and
// dropped whenever a workflow changes that bank's stock.
type Service struct {
	repo    repository.InventoryRepository
	cache   *cache.Cache
	clock   model.Clock
	metrics *metrics.Metrics
}

func NewService(repo repository.InventoryRepository, ttl time.Duration, clock model.Clock, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   cache.New(ttl, 2*ttl),
		clock:   clock,
		metrics: m,
	}
}

func bankKey(bankID int64) string {
	return fmt.Sprintf("bank:%d", bankID)
}

type cachedTotals struct {
	day    time.Time
	totals []model.GroupTotal
}

// AvailableUnits sums usable units per blood group for one bank.
func (s *Service) AvailableUnits(ctx context.Context, bankID int64) (*model.BankInventory, error) {
	today := model.DateOf(s.clock())

	if v, ok := s.cache.Get(bankKey(bankID)); ok {
		if c := v.(cachedTotals); c.day.Equal(today) {
			return &model.BankInventory{BloodBankID: bankID, Inventory: c.totals}, nil
		}
	}

	totals, err := s.repo.AvailableByBank(ctx, bankID, today)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.cache.SetDefault(bankKey(bankID), cachedTotals{day: today, totals: totals})

	return &model.BankInventory{BloodBankID: bankID, Inventory: totals}, nil
}

// Summary sums usable units per blood group across all banks.
func (s *Service) Summary(ctx context.Context) ([]model.GroupTotal, error) {
	totals, err := s.repo.Summary(ctx, model.DateOf(s.clock()))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return totals, nil
}

// ExpireUnits flags every available unit past its expiry date.
func (s *Service) ExpireUnits(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireBefore(ctx, model.DateOf(s.clock()))
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	if n > 0 {
		s.cache.Flush()
		log.Ctx(ctx).Info().Int64("count", n).Msg("inventory units expired")
	}
	s.metrics.Expired(n)
	return n, nil
}

// Invalidate drops the cached totals for one bank.
func (s *Service) Invalidate(bankID int64) {
	s.cache.Delete(bankKey(bankID))
}
