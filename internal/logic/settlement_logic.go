package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/config"
	"github.com/GANESH4511/Dataverse/internal/lock"
	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/metrics"
	"github.com/GANESH4511/Dataverse/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	payerLockKey   = "payer"
	payerLockRetry = 50 * time.Millisecond
)

// SettlementOptions tunes reward accrual and payouts.
type SettlementOptions struct {
	RewardPercent  int64
	FailurePolicy  string // config.FailurePolicyStrict or config.FailurePolicyLegacy
	ConfirmTimeout time.Duration
	StaleAfter     time.Duration
	LockTTL        time.Duration
}

// SettlementOptionsFrom reads the settlement and chain sections.
func SettlementOptionsFrom(cfg *config.Config) SettlementOptions {
	return SettlementOptions{
		RewardPercent:  cfg.Settlement.RewardPercent,
		FailurePolicy:  cfg.Settlement.FailurePolicy,
		ConfirmTimeout: cfg.Chain.ConfirmTimeout,
		StaleAfter:     cfg.Settlement.StaleAfter,
		LockTTL:        cfg.Settlement.LockTTL,
	}
}

// Balance is a worker's pair of balances in the smallest unit.
type Balance struct {
	Pending int64 `json:"pending"`
	Locked  int64 `json:"locked"`
}

// PayoutResult describes a finished or in-flight payout attempt.
type PayoutResult struct {
	Balance      Balance
	PayoutAmount int64
	Note         string
	Payout       *model.Payout
	// Settled is true once the amount has moved to the locked balance.
	Settled bool
}

// SettlementLogic owns every mutation of worker balances.
type SettlementLogic struct {
	db          *gorm.DB
	transferrer chain.Transferrer
	locker      lock.Locker
	metrics     *metrics.Metrics
	opts        SettlementOptions
	now         func() time.Time
}

// NewSettlementLogic creates the settlement engine. transferrer may be nil,
// in which case payouts skip the on-chain step. A zero RewardPercent means
// the default of 10; config.Validate rejects zero before it gets here.
func NewSettlementLogic(db *gorm.DB, transferrer chain.Transferrer, locker lock.Locker, m *metrics.Metrics, opts SettlementOptions) *SettlementLogic {
	if opts.RewardPercent == 0 {
		opts.RewardPercent = 10
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.FailurePolicyStrict
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 60 * time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 5 * time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	return &SettlementLogic{
		db:          db,
		transferrer: transferrer,
		locker:      locker,
		metrics:     m,
		opts:        opts,
		now:         time.Now,
	}
}

// Reward is the floor of amount * RewardPercent / 100. It never exceeds
// the exact fraction, so total rewards stay within the bounty share.
func (s *SettlementLogic) Reward(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	p := s.opts.RewardPercent
	return amount/100*p + amount%100*p/100
}

// Credit adds the reward for taskAmount to the worker's pending balance.
// It must run inside the caller's transaction so the credit commits or
// rolls back together with the submission.
func (s *SettlementLogic) Credit(tx *gorm.DB, workerID string, taskAmount int64) (reward, newPending int64, err error) {
	reward = s.Reward(taskAmount)

	res := tx.Model(&model.Worker{}).
		Where("id = ?", workerID).
		Update("pending_balance", gorm.Expr("pending_balance + ?", reward))
	if res.Error != nil {
		return 0, 0, internal("Failed to credit worker", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, 0, ErrWorkerNotFound
	}

	var worker model.Worker
	if err := tx.Select("pending_balance").First(&worker, "id = ?", workerID).Error; err != nil {
		return 0, 0, internal("Failed to read balance", err)
	}
	return reward, worker.PendingBalance, nil
}

// GetBalance returns the worker's current balances.
func (s *SettlementLogic) GetBalance(workerID string) (*Balance, error) {
	var worker model.Worker
	if err := s.db.Select("pending_balance", "locked_balance").First(&worker, "id = ?", workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, internal("Failed to fetch balance", err)
	}
	return &Balance{Pending: worker.PendingBalance, Locked: worker.LockedBalance}, nil
}

// Payout moves the worker's whole pending balance out through the chain.
func (s *SettlementLogic) Payout(ctx context.Context, workerID string) (*PayoutResult, error) {
	return s.payout(ctx, workerID, "")
}

// RetryPayout starts a new attempt for a failed payout of the same worker.
// Only strict mode returns the failed amount to pending, so only strict
// mode allows retries.
func (s *SettlementLogic) RetryPayout(ctx context.Context, workerID, payoutID string) (*PayoutResult, error) {
	if s.opts.FailurePolicy != config.FailurePolicyStrict {
		return nil, ErrPayoutNotRetryable
	}
	return s.payout(ctx, workerID, payoutID)
}

func (s *SettlementLogic) payout(ctx context.Context, workerID, retryOf string) (*PayoutResult, error) {
	release, err := s.locker.Acquire(ctx, "payout:"+workerID, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrPayoutInProgress
		}
		return nil, internal("Failed to acquire payout lock", err)
	}
	defer release()

	payout, err := s.reserve(workerID, retryOf)
	if err != nil {
		return nil, err
	}
	logger.Info("Payout %s reserved %d for worker %s", payout.ID, payout.Amount, workerID)

	if s.transferrer == nil {
		logger.Warn("No payer configured, skipping on-chain transfer for payout %s", payout.ID)
		if err := s.finish(payout.ID, chain.StatusConfirmed, "", true); err != nil {
			return nil, err
		}
		return s.result(payout.ID, "Note: Configure PARENT_WALLET_PRIVATE_KEY to enable automatic transfers")
	}

	status, reason := s.transfer(ctx, payout)
	switch status {
	case chain.StatusConfirmed:
		if err := s.finish(payout.ID, status, "", false); err != nil {
			return nil, err
		}
		return s.result(payout.ID, "Transferred to wallet")
	case chain.StatusFailed, chain.StatusExpired:
		if err := s.finish(payout.ID, status, reason, false); err != nil {
			return nil, err
		}
		if s.opts.FailurePolicy == config.FailurePolicyLegacy {
			return s.result(payout.ID, "Transfer failed: "+reason+". Balance was moved to locked anyway")
		}
		return s.result(payout.ID, "Transfer failed: "+reason+". Pending balance was kept and the payout can be retried")
	default:
		return s.result(payout.ID, "Transfer submitted, awaiting confirmation")
	}
}

// reserve records a REQUESTED payout for the whole pending balance and
// zeroes pending in the same transaction.
func (s *SettlementLogic) reserve(workerID, retryOf string) (*model.Payout, error) {
	var payout model.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var worker model.Worker
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&worker, "id = ?", workerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return internal("Failed to load worker", err)
		}

		if retryOf != "" {
			res := tx.Model(&model.Payout{}).
				Where("id = ? AND worker_id = ? AND status = ? AND retried = ?", retryOf, workerID, model.PayoutStatusFailed, false).
				Update("retried", true)
			if res.Error != nil {
				return internal("Failed to mark payout retried", res.Error)
			}
			if res.RowsAffected == 0 {
				var count int64
				tx.Model(&model.Payout{}).Where("id = ? AND worker_id = ?", retryOf, workerID).Count(&count)
				if count == 0 {
					return ErrPayoutNotFound
				}
				return ErrPayoutNotRetryable
			}
		}

		if worker.PendingBalance <= 0 {
			return ErrNoPendingBalance
		}

		payout = model.Payout{
			WorkerID: workerID,
			Amount:   worker.PendingBalance,
			Address:  worker.WalletAddress,
			Status:   model.PayoutStatusRequested,
		}
		if retryOf != "" {
			payout.RetryOf = &retryOf
		}
		if err := tx.Create(&payout).Error; err != nil {
			return internal("Failed to record payout", err)
		}

		res := tx.Model(&model.Worker{}).
			Where("id = ? AND pending_balance = ?", workerID, worker.PendingBalance).
			Update("pending_balance", gorm.Expr("pending_balance - ?", payout.Amount))
		if res.Error != nil {
			return internal("Failed to reserve balance", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPayoutInProgress
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// transfer signs, persists TRANSFER_SENT, broadcasts and waits. A pending
// result means the outcome is unknown and the reconciler will settle it.
func (s *SettlementLogic) transfer(ctx context.Context, payout *model.Payout) (chain.TransferStatus, string) {
	if err := s.transferrer.ValidateAddress(payout.Address); err != nil {
		logger.Error("Payout %s has an invalid destination: %v", payout.ID, err)
		return chain.StatusFailed, "invalid destination address"
	}

	// transfers share the payer's nonce or blockhash window; send them one at a time
	release, err := lock.Wait(ctx, s.locker, payerLockKey, s.opts.LockTTL, payerLockRetry)
	if err != nil {
		logger.Error("Failed to acquire payer lock for payout %s: %v", payout.ID, err)
		return chain.StatusFailed, "payer is busy"
	}
	defer release()

	prepared, err := s.transferrer.Prepare(ctx, payout.Address, payout.Amount)
	if err != nil {
		logger.Error("Failed to prepare transfer for payout %s: %v", payout.ID, err)
		return chain.StatusFailed, "could not prepare transfer"
	}

	res := s.db.Model(&model.Payout{}).
		Where("id = ? AND status = ?", payout.ID, model.PayoutStatusRequested).
		Updates(map[string]interface{}{
			"status":     model.PayoutStatusTransferSent,
			"signature":  prepared.Signature,
			"last_valid": prepared.LastValid,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		// nothing was sent, so failing here is safe
		logger.Error("Failed to persist transfer for payout %s: %v", payout.ID, res.Error)
		return chain.StatusFailed, "could not record transfer"
	}

	start := s.now()
	err = s.transferrer.Broadcast(ctx, prepared)
	release()
	if errors.Is(err, chain.ErrRejected) {
		logger.Error("Payout %s (%s) was rejected: %v", payout.ID, prepared.Signature, err)
		return chain.StatusFailed, "transfer was rejected by the network"
	}
	if err != nil {
		// a failed send may still land; trust the chain, not the error
		logger.Error("Broadcast of payout %s (%s) failed: %v", payout.ID, prepared.Signature, err)
		status, lookupErr := s.transferrer.Status(ctx, prepared.Signature, prepared.LastValid)
		if lookupErr != nil || !status.Final() {
			return chain.StatusPending, ""
		}
		return status, "transfer was rejected by the network"
	}

	awaitCtx, cancel := context.WithTimeout(ctx, s.opts.ConfirmTimeout)
	defer cancel()
	status, err := s.transferrer.Await(awaitCtx, prepared.Signature, prepared.LastValid)
	if err != nil {
		logger.Warn("Payout %s not final after %s: %v", payout.ID, s.opts.ConfirmTimeout, err)
		return chain.StatusPending, ""
	}
	s.metrics.TransferObserved(s.now().Sub(start))

	switch status {
	case chain.StatusConfirmed:
		logger.Info("Payout %s confirmed: %s", payout.ID, prepared.Signature)
		return status, ""
	case chain.StatusExpired:
		return status, "transfer expired before confirmation"
	default:
		return status, "transfer failed on chain"
	}
}

// finish moves a non-final payout to CONFIRMED or FAILED and applies the
// balance effect exactly once.
func (s *SettlementLogic) finish(payoutID string, status chain.TransferStatus, reason string, skipped bool) error {
	var final model.PayoutStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var payout model.Payout
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payout, "id = ?", payoutID).Error; err != nil {
			return internal("Failed to load payout", err)
		}
		if payout.Status.Final() {
			return nil
		}

		updates := map[string]interface{}{"skipped": skipped}
		column := "locked_balance"
		if status == chain.StatusConfirmed {
			final = model.PayoutStatusConfirmed
		} else {
			final = model.PayoutStatusFailed
			updates["failure_reason"] = reason
			if s.opts.FailurePolicy != config.FailurePolicyLegacy {
				column = "pending_balance"
			}
		}
		updates["status"] = final

		res := tx.Model(&model.Payout{}).
			Where("id = ? AND status = ?", payout.ID, payout.Status).
			Updates(updates)
		if res.Error != nil {
			return internal("Failed to update payout", res.Error)
		}
		if res.RowsAffected == 0 {
			final = ""
			return nil
		}

		if err := tx.Model(&model.Worker{}).
			Where("id = ?", payout.WorkerID).
			Update(column, gorm.Expr(column+" + ?", payout.Amount)).Error; err != nil {
			return internal("Failed to settle balance", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if final != "" {
		s.metrics.PayoutFinished(string(final))
		logger.Info("Payout %s finished as %s", payoutID, final)
	}
	return nil
}

func (s *SettlementLogic) result(payoutID, note string) (*PayoutResult, error) {
	var payout model.Payout
	if err := s.db.First(&payout, "id = ?", payoutID).Error; err != nil {
		return nil, internal("Failed to load payout", err)
	}
	balance, err := s.GetBalance(payout.WorkerID)
	if err != nil {
		return nil, err
	}
	settled := payout.Status == model.PayoutStatusConfirmed ||
		(payout.Status == model.PayoutStatusFailed && s.opts.FailurePolicy == config.FailurePolicyLegacy)
	return &PayoutResult{
		Balance:      *balance,
		PayoutAmount: payout.Amount,
		Note:         note,
		Payout:       &payout,
		Settled:      settled,
	}, nil
}

// ListPayouts returns the worker's payout attempts, newest first.
func (s *SettlementLogic) ListPayouts(workerID string) ([]model.Payout, error) {
	var payouts []model.Payout
	if err := s.db.Where("worker_id = ?", workerID).Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, internal("Failed to fetch payouts", err)
	}
	return payouts, nil
}

// StalePayouts returns non-final attempts untouched for longer than StaleAfter.
func (s *SettlementLogic) StalePayouts(ctx context.Context) ([]model.Payout, error) {
	var payouts []model.Payout
	cutoff := s.now().Add(-s.opts.StaleAfter)
	if err := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []model.PayoutStatus{model.PayoutStatusRequested, model.PayoutStatusTransferSent}, cutoff).
		Order("created_at").
		Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("query stale payouts: %w", err)
	}
	return payouts, nil
}

// ReconcilePayout settles one stale attempt from the chain's view of it.
// Attempts whose worker currently holds the payout lock are left alone.
func (s *SettlementLogic) ReconcilePayout(ctx context.Context, payout model.Payout) error {
	release, err := s.locker.Acquire(ctx, "payout:"+payout.WorkerID, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil
		}
		return err
	}
	defer release()

	// the row may have moved on since it was listed
	if err := s.db.WithContext(ctx).First(&payout, "id = ?", payout.ID).Error; err != nil {
		return fmt.Errorf("reload payout %s: %w", payout.ID, err)
	}

	switch payout.Status {
	case model.PayoutStatusRequested:
		// TRANSFER_SENT is written before any broadcast, so this was never sent
		logger.Warn("Payout %s was never broadcast, failing it", payout.ID)
		return s.finish(payout.ID, chain.StatusFailed, "transfer was never sent", false)

	case model.PayoutStatusTransferSent:
		if s.transferrer == nil {
			logger.Warn("Cannot reconcile payout %s without a chain client", payout.ID)
			return nil
		}
		status, err := s.transferrer.Status(ctx, payout.Signature, payout.LastValid)
		if err != nil {
			return fmt.Errorf("status of payout %s: %w", payout.ID, err)
		}
		switch status {
		case chain.StatusConfirmed:
			return s.finish(payout.ID, status, "", false)
		case chain.StatusFailed:
			return s.finish(payout.ID, status, "transfer failed on chain", false)
		case chain.StatusExpired:
			return s.finish(payout.ID, status, "transfer expired before confirmation", false)
		}
		logger.Info("Payout %s still pending on chain", payout.ID)
	}
	return nil
}
