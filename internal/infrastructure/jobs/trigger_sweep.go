package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"escrow-chain.backend/internal/usecases"
	"escrow-chain.backend/pkg/logger"
)

// TriggerSweepJob runs the trigger/condition evaluation sweep on a fixed
// interval. The sweep is load-bearing: time-based triggers only ever fire
// because this job runs.
type TriggerSweepJob struct {
	evaluator *usecases.TriggerEvaluator
	interval  time.Duration
	stop      chan struct{}
}

// NewTriggerSweepJob creates the sweep job. A non-positive interval falls
// back to the engine default.
func NewTriggerSweepJob(evaluator *usecases.TriggerEvaluator, interval time.Duration) *TriggerSweepJob {
	if interval <= 0 {
		interval = usecases.DefaultSweepInterval
	}
	return &TriggerSweepJob{
		evaluator: evaluator,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called
func (j *TriggerSweepJob) Start(ctx context.Context) {
	logger.Info(ctx, "starting trigger sweep job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "trigger sweep job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "trigger sweep job stopped")
			return
		case <-ticker.C:
			j.evaluator.Sweep(ctx)
		}
	}
}

// Stop terminates the sweep loop
func (j *TriggerSweepJob) Stop() {
	close(j.stop)
}
