package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRunPeriodic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs int32

	done := make(chan struct{})
	go func() {
		RunPeriodic(ctx, Job{
			Name:       "test",
			Interval:   10 * time.Millisecond,
			RunAtStart: true,
			Run: func(context.Context) error {
				atomic.AddInt32(&runs, 1)
				return errors.New("keeps going")
			},
		}, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}
