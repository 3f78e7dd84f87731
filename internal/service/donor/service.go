package donor

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
)

type Service struct {
	repo    repository.DonorRepository
	clock   model.Clock
	metrics *metrics.Metrics
}

func NewService(repo repository.DonorRepository, clock model.Clock, m *metrics.Metrics) *Service {
	return &Service{repo: repo, clock: clock, metrics: m}
}

// Register creates an eligible donor record for userID.
func (s *Service) Register(ctx context.Context, userID int64, bloodGroup string) (*model.Donor, error) {
	if !model.ValidBloodGroup(bloodGroup) {
		return nil, apperrors.BadRequest("invalid blood group", nil)
	}

	donor := &model.Donor{UserID: userID, BloodGroup: bloodGroup, Eligible: true}
	if err := s.repo.Create(ctx, donor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("user already registered as donor")
		}
		return nil, apperrors.Internal(err)
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Int64("donor_id", donor.ID).Msg("donor registered")
	return donor, nil
}

// Profile returns the caller's donor record and badges.
func (s *Service) Profile(ctx context.Context, userID int64) (*model.DonorProfile, error) {
	donor, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("donor", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	badges, err := s.repo.ListBadges(ctx, donor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.DonorProfile{Donor: donor, Badges: badges}, nil
}

// ResetEligibility re-enables donors whose cooldown has passed. Running it
// twice on the same day changes nothing the second time.
func (s *Service) ResetEligibility(ctx context.Context) (int64, error) {
	cutoff := model.DateOf(s.clock()).AddDate(0, 0, -model.CooldownDays)

	n, err := s.repo.ResetEligibility(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Internal(err)
	}

	s.metrics.Resets(n)
	log.Ctx(ctx).Info().Int64("count", n).Time("cutoff", cutoff).Msg("donor eligibility reset")
	return n, nil
}
