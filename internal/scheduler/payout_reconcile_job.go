package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// PayoutReconciler is satisfied by logic.SettlementLogic.
type PayoutReconciler interface {
	StalePayouts(ctx context.Context) ([]model.Payout, error)
	ReconcilePayout(ctx context.Context, payout model.Payout) error
}

// PayoutReconcileJob settles payouts whose outcome was left unknown.
type PayoutReconcileJob struct {
	reconciler  PayoutReconciler
	interval    time.Duration
	concurrency int
	timeout     time.Duration
}

func NewPayoutReconcileJob(reconciler PayoutReconciler, interval time.Duration) *PayoutReconcileJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PayoutReconcileJob{
		reconciler:  reconciler,
		interval:    interval,
		concurrency: 8,
		timeout:     interval,
	}
}

func (j *PayoutReconcileJob) GetName() string {
	return "payout_reconcile"
}

func (j *PayoutReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute runs one reconciliation pass.
func (j *PayoutReconcileJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	j.run(ctx)
}

// run checks stale payouts concurrently and returns how many were processed
// without error.
func (j *PayoutReconcileJob) run(ctx context.Context) int {
	payouts, err := j.reconciler.StalePayouts(ctx)
	if err != nil {
		logger.Error("Failed to list stale payouts: %v", err)
		return 0
	}
	if len(payouts) == 0 {
		return 0
	}
	logger.Info("Reconciling %d stale payouts", len(payouts))

	size := j.concurrency
	if len(payouts) < size {
		size = len(payouts)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		logger.Error("Failed to create reconcile pool: %v", err)
		return 0
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var ok int64
	for _, payout := range payouts {
		payout := payout
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := j.reconciler.ReconcilePayout(ctx, payout); err != nil {
				logger.Error("Failed to reconcile payout %s: %v", payout.ID, err)
				return
			}
			atomic.AddInt64(&ok, 1)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit payout %s: %v", payout.ID, err)
		}
	}
	wg.Wait()

	logger.Info("Payout reconciliation completed, %d/%d processed", ok, len(payouts))
	return int(ok)
}
