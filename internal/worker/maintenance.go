package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jwalitptl/bloodbank-api/pkg/worker"
)

// EligibilityResetter re-enables donors whose cooldown has passed.
type EligibilityResetter interface {
	ResetEligibility(ctx context.Context) (int64, error)
}

// UnitExpirer flags inventory units past their expiry date.
type UnitExpirer interface {
	ExpireUnits(ctx context.Context) (int64, error)
}

// MaintenanceWorker runs the daily bookkeeping jobs on their own schedules.
type MaintenanceWorker struct {
	donors              EligibilityResetter
	inventory           UnitExpirer
	eligibilityInterval time.Duration
	expiryInterval      time.Duration
	logger              *zap.Logger
}

func NewMaintenanceWorker(donors EligibilityResetter, inventory UnitExpirer, eligibilityInterval, expiryInterval time.Duration, logger *zap.Logger) *MaintenanceWorker {
	return &MaintenanceWorker{
		donors:              donors,
		inventory:           inventory,
		eligibilityInterval: eligibilityInterval,
		expiryInterval:      expiryInterval,
		logger:              logger,
	}
}

func (w *MaintenanceWorker) Jobs() []worker.Job {
	return []worker.Job{
		{
			Name:       "eligibility-reset",
			Interval:   w.eligibilityInterval,
			RunAtStart: true,
			Run:        w.resetEligibility,
		},
		{
			Name:       "inventory-expiry",
			Interval:   w.expiryInterval,
			RunAtStart: true,
			Run:        w.expireUnits,
		},
	}
}

// Start blocks until ctx is done.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range w.Jobs() {
		wg.Add(1)
		go func(job worker.Job) {
			defer wg.Done()
			worker.RunPeriodic(ctx, job, w.logger)
		}(job)
	}
	wg.Wait()
}

func (w *MaintenanceWorker) resetEligibility(ctx context.Context) error {
	n, err := w.donors.ResetEligibility(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset donor eligibility: %w", err)
	}
	w.logger.Info("donor eligibility reset", zap.Int64("donors", n))
	return nil
}

func (w *MaintenanceWorker) expireUnits(ctx context.Context) error {
	n, err := w.inventory.ExpireUnits(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire inventory units: %w", err)
	}
	w.logger.Info("inventory units expired", zap.Int64("units", n))
	return nil
}
