package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"adops/internal/config"
	"adops/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	specs     config.SchedulerConfig
	logger    *logger.Logger
}

// NewScheduler creates a new task scheduler
func NewScheduler(redisCfg config.RedisConfig, specs config.SchedulerConfig, logger *logger.Logger) *Scheduler {
	scheduler := asynq.NewScheduler(redisClientOpt(redisCfg), &asynq.SchedulerOpts{})

	return &Scheduler{
		scheduler: scheduler,
		specs:     specs,
		logger:    logger,
	}
}

// NextRun parses a standard five-field cron spec and returns its first activation after from.
func NextRun(spec string, from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return schedule.Next(from), nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Run()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

// registerTasks registers all periodic tasks
func (s *Scheduler) registerTasks() error {
	if s.specs.StorageReconcileSpec == "" {
		s.logger.Warn("storage reconcile disabled, no schedule configured")
		return nil
	}

	payload, err := json.Marshal(ReconcilePayload{BatchSize: defaultReconcileBatch})
	if err != nil {
		return err
	}
	if err := s.RegisterCustomTask(s.specs.StorageReconcileSpec, TaskTypeStorageReconcile, payload, defaultOptions(TaskTypeStorageReconcile)...); err != nil {
		return err
	}

	s.logger.Info("registered all periodic tasks")
	return nil
}

// RegisterCustomTask registers a custom periodic task
func (s *Scheduler) RegisterCustomTask(spec string, taskType string, payload []byte, opts ...asynq.Option) error {
	next, err := NextRun(spec, time.Now())
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(spec, asynq.NewTask(taskType, payload, opts...))
	if err != nil {
		return fmt.Errorf("failed to register custom task: %w", err)
	}

	s.logger.Info("registered custom task %s %s %s, next run %s", taskType, spec, entryID, next.Format(time.RFC3339))
	return nil
}
