package scheduler

import (
	"fmt"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Job is a recurring background task.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager runs the background jobs.
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

func NewManager(jobs ...Job) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Manager{scheduler: s, jobs: jobs}, nil
}

// Start registers every job and starts the scheduler. A job that fails
// to register is logged and skipped.
func (m *Manager) Start() {
	for _, job := range m.jobs {
		m.register(job)
	}
	m.scheduler.Start()
	logger.Info("Task manager started with %d jobs", len(m.jobs))
}

// register runs each job in singleton mode so a slow pass is never overlapped.
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return
	}
	logger.Info("Registered job %s", job.GetName())
}

func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
