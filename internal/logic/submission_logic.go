package logic

import (
	"errors"
	"strings"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/metrics"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/GANESH4511/Dataverse/internal/storage"
	"gorm.io/gorm"
)

// SubmissionResult is a stored submission and the credit it earned.
type SubmissionResult struct {
	Submission *model.Submission
	Reward     int64
	NewPending int64
}

// SubmissionLogic accepts worker deliverables.
type SubmissionLogic struct {
	db         *gorm.DB
	mapper     *storage.Mapper
	settlement *SettlementLogic
	metrics    *metrics.Metrics
}

func NewSubmissionLogic(db *gorm.DB, mapper *storage.Mapper, settlement *SettlementLogic, m *metrics.Metrics) *SubmissionLogic {
	return &SubmissionLogic{db: db, mapper: mapper, settlement: settlement, metrics: m}
}

// CreateSubmission stores the worker's archive for a task and credits the
// reward in the same transaction. The (task, worker) unique index rejects
// a second submission, which then earns nothing.
func (s *SubmissionLogic) CreateSubmission(workerID, taskID, fileRef string) (*SubmissionResult, error) {
	taskID = strings.TrimSpace(taskID)
	fileRef = strings.TrimSpace(fileRef)
	if taskID == "" || fileRef == "" {
		return nil, validation("taskId and fileUrl are required")
	}

	var task model.Task
	if err := s.db.Select("id", "amount").First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, internal("Failed to create submission", err)
	}

	key := s.mapper.ExtractKey(fileRef)
	if !storage.ValidKeyIn(key, storage.FolderSubmissions) {
		return nil, validation("Invalid file URL. Must be a ZIP file in submissions/ folder")
	}
	fileURL, err := s.mapper.DeliveryURL(key)
	if err != nil {
		return nil, internal("Storage configuration error", err)
	}

	submission := &model.Submission{
		FileURL:  fileURL,
		TaskID:   task.ID,
		WorkerID: workerID,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Create(submission).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return nil, ErrAlreadySubmitted
		}
		return nil, internal("Failed to create submission", err)
	}

	reward, newPending, err := s.settlement.Credit(tx, workerID, task.Amount)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, internal("Failed to create submission", err)
	}

	s.metrics.RewardCredited(reward)
	logger.Info("Submission %s for task %s credited %d to worker %s", submission.ID, task.ID, reward, workerID)
	return &SubmissionResult{Submission: submission, Reward: reward, NewPending: newPending}, nil
}

// ListSubmissionsForWorker returns the worker's submissions with their tasks, newest first.
func (s *SubmissionLogic) ListSubmissionsForWorker(workerID string) ([]model.Submission, error) {
	var submissions []model.Submission
	if err := s.db.
		Preload("Task").
		Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, internal("Failed to fetch submissions", err)
	}
	return submissions, nil
}
