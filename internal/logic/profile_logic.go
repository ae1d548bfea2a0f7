package logic

import (
	"errors"

	"github.com/GANESH4511/Dataverse/internal/model"
	"gorm.io/gorm"
)

type UserStats struct {
	TotalTasks      int64
	CompletedTasks  int64
	InProgressTasks int64
	TotalPayments   int64 // smallest unit
}

type UserProfile struct {
	User  model.User
	Stats UserStats
}

type WorkerStats struct {
	TotalSubmissions int64
	PendingBalance   int64
	LockedBalance    int64
	CompletedTasks   int64
}

type WorkerProfile struct {
	Worker model.Worker
	Stats  WorkerStats
}

// ProfileLogic aggregates account statistics.
type ProfileLogic struct {
	db *gorm.DB
}

func NewProfileLogic(db *gorm.DB) *ProfileLogic {
	return &ProfileLogic{db: db}
}

// UserProfile returns the user with task and payment totals. Every task
// that is not COMPLETED counts as in progress.
func (p *ProfileLogic) UserProfile(userID string) (*UserProfile, error) {
	var user model.User
	if err := p.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("Failed to fetch profile", err)
	}

	var stats UserStats
	if err := p.db.Model(&model.Task{}).Where("user_id = ?", userID).Count(&stats.TotalTasks).Error; err != nil {
		return nil, internal("Failed to fetch profile", err)
	}
	if err := p.db.Model(&model.Task{}).
		Where("user_id = ? AND status = ?", userID, model.TaskStatusCompleted).
		Count(&stats.CompletedTasks).Error; err != nil {
		return nil, internal("Failed to fetch profile", err)
	}
	stats.InProgressTasks = stats.TotalTasks - stats.CompletedTasks

	if err := p.db.Model(&model.Payment{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalPayments).Error; err != nil {
		return nil, internal("Failed to fetch profile", err)
	}

	return &UserProfile{User: user, Stats: stats}, nil
}

// WorkerProfile returns the worker with submission and balance totals.
// Each submission counts as a completed task.
func (p *ProfileLogic) WorkerProfile(workerID string) (*WorkerProfile, error) {
	var worker model.Worker
	if err := p.db.First(&worker, "id = ?", workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, internal("Failed to fetch profile", err)
	}

	var submissions int64
	if err := p.db.Model(&model.Submission{}).Where("worker_id = ?", workerID).Count(&submissions).Error; err != nil {
		return nil, internal("Failed to fetch profile", err)
	}

	return &WorkerProfile{
		Worker: worker,
		Stats: WorkerStats{
			TotalSubmissions: submissions,
			PendingBalance:   worker.PendingBalance,
			LockedBalance:    worker.LockedBalance,
			CompletedTasks:   submissions,
		},
	}, nil
}
