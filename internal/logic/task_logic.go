package logic

import (
	"errors"
	"math"
	"strings"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/GANESH4511/Dataverse/internal/storage"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// CreateTaskInput is the raw task request. Amount is kept as text so both
// JSON numbers and numeric strings are accepted.
type CreateTaskInput struct {
	Title       string
	Description string
	Amount      string
	FileURL     string
}

// TaskSummary is a task as seen by a worker browsing the marketplace.
type TaskSummary struct {
	model.Task
	SubmissionsCount int64
	HasSubmitted     bool
}

// TaskLogic manages tasks posted by users.
type TaskLogic struct {
	db     *gorm.DB
	mapper *storage.Mapper
}

func NewTaskLogic(db *gorm.DB, mapper *storage.Mapper) *TaskLogic {
	return &TaskLogic{db: db, mapper: mapper}
}

// CreateTask validates the input, resolves the uploaded archive to its
// delivery URL and stores the task as PENDING.
func (t *TaskLogic) CreateTask(ownerID string, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	amountText := strings.TrimSpace(in.Amount)
	fileRef := strings.TrimSpace(in.FileURL)
	if title == "" || amountText == "" || fileRef == "" {
		return nil, validation("Title, amount, and fileUrl are required")
	}

	amount, ok := parseAmount(amountText)
	if !ok {
		return nil, validation("Amount must be a positive number")
	}

	key := t.mapper.ExtractKey(fileRef)
	if !storage.ValidKeyIn(key, storage.FolderUploads) {
		return nil, validation("Invalid file URL. Must be a ZIP file in uploads/ folder")
	}
	fileURL, err := t.mapper.DeliveryURL(key)
	if err != nil {
		return nil, internal("Storage configuration error", err)
	}

	task := &model.Task{
		Title:   title,
		Amount:  amount,
		FileURL: fileURL,
		Status:  model.TaskStatusPending,
		UserID:  ownerID,
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		task.Description = &desc
	}

	if err := t.db.Create(task).Error; err != nil {
		return nil, internal("Failed to create task", err)
	}
	logger.Info("Task %s created by user %s with bounty %d", task.ID, ownerID, amount)
	return task, nil
}

// ListTasksForOwner returns the owner's tasks with their submissions, newest first.
func (t *TaskLogic) ListTasksForOwner(ownerID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := t.db.
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, internal("Failed to fetch tasks", err)
	}
	return tasks, nil
}

// ListAllTasks returns every task with its submission count and whether
// workerID already submitted, newest first.
func (t *TaskLogic) ListAllTasks(workerID string) ([]TaskSummary, error) {
	var tasks []model.Task
	if err := t.db.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, internal("Failed to fetch tasks", err)
	}

	var counts []struct {
		TaskID string
		Count  int64
	}
	if err := t.db.Model(&model.Submission{}).
		Select("task_id, COUNT(*) AS count").
		Group("task_id").
		Scan(&counts).Error; err != nil {
		return nil, internal("Failed to fetch tasks", err)
	}
	countByTask := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByTask[c.TaskID] = c.Count
	}

	submitted := make(map[string]bool)
	if workerID != "" {
		var ids []string
		if err := t.db.Model(&model.Submission{}).
			Where("worker_id = ?", workerID).
			Pluck("task_id", &ids).Error; err != nil {
			return nil, internal("Failed to fetch tasks", err)
		}
		for _, id := range ids {
			submitted[id] = true
		}
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, TaskSummary{
			Task:             task,
			SubmissionsCount: countByTask[task.ID],
			HasSubmitted:     submitted[task.ID],
		})
	}
	return summaries, nil
}

// GetTask loads one task.
func (t *TaskLogic) GetTask(id string) (*model.Task, error) {
	var task model.Task
	if err := t.db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, internal("Failed to fetch task", err)
	}
	return &task, nil
}

// parseAmount accepts any JSON number spelling of a positive whole amount
// in the smallest unit, including exponent form such as 1e9.
func parseAmount(text string) (int64, bool) {
	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsPositive() || !d.IsInteger() || d.GreaterThan(maxAmount) {
		return 0, false
	}
	return d.IntPart(), true
}
