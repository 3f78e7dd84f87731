package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	// RunAtStart runs the job once before the first tick.
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// RunPeriodic runs job every interval until ctx is done. Errors are logged
// and the loop carries on.
func RunPeriodic(ctx context.Context, job Job, log *zap.Logger) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	log = log.With(zap.String("job", job.Name))
	log.Info("starting job", zap.Duration("interval", job.Interval))

	run := func() {
		if err := job.Run(ctx); err != nil {
			log.Error("job failed", zap.Error(err))
		}
	}
	if job.RunAtStart {
		run()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping job")
			return
		case <-ticker.C:
			run()
		}
	}
}
