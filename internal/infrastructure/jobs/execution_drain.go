package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"escrow-chain.backend/internal/usecases"
	"escrow-chain.backend/pkg/logger"
)

// ExecutionDrainJob periodically drains the advisory execution queue and
// logs a summary. Purely observational: it is scheduled independently of the
// trigger sweep and can be dropped without affecting engine guarantees.
type ExecutionDrainJob struct {
	queue    *usecases.ExecutionQueue
	interval time.Duration
	stop     chan struct{}
}

// NewExecutionDrainJob creates the drain job
func NewExecutionDrainJob(queue *usecases.ExecutionQueue, interval time.Duration) *ExecutionDrainJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExecutionDrainJob{
		queue:    queue,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the drain loop until the context is cancelled or Stop is called
func (j *ExecutionDrainJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		case <-ticker.C:
			j.drain(ctx)
		}
	}
}

// Stop terminates the drain loop
func (j *ExecutionDrainJob) Stop() {
	close(j.stop)
}

func (j *ExecutionDrainJob) drain(ctx context.Context) {
	notices := j.queue.Drain()
	if len(notices) == 0 {
		return
	}
	for _, n := range notices {
		logger.Debug(ctx, "execution notice",
			zap.String("contract_id", n.ContractID.String()),
			zap.String("action", n.Action),
			zap.String("actor", n.Actor),
			zap.Time("at", n.At),
		)
	}
	logger.Info(ctx, "drained execution queue", zap.Int("notices", len(notices)))
}
