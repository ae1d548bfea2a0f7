package model

// Task is a paid data-annotation job posted by a user.
type Task struct {
	Base
	Title       string     `json:"title" gorm:"not null"`
	Description *string    `json:"description" gorm:"type:text"`
	Amount      int64      `json:"amount" gorm:"not null"`
	FileURL     string     `json:"fileUrl" gorm:"not null"`
	Status      TaskStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING'"`
	UserID      string     `json:"userId" gorm:"type:varchar(36);not null;index"`

	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:TaskID"`
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Submission is one worker's deliverable for one task.
type Submission struct {
	Base
	FileURL  string `json:"fileUrl" gorm:"not null"`
	TaskID   string `json:"taskId" gorm:"type:varchar(36);not null;uniqueIndex:idx_submission_task_worker"`
	WorkerID string `json:"workerId" gorm:"type:varchar(36);not null;uniqueIndex:idx_submission_task_worker;index"`

	Task   *Task   `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Worker *Worker `json:"worker,omitempty" gorm:"foreignKey:WorkerID"`
}
