package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adops/internal/config"
	"adops/internal/utils/logger"

	"github.com/hibiken/asynq"
)

var queuePriorities = map[string]int{
	QueueCritical: 6, // High priority
	QueueDefault:  3, // Medium priority
	QueueLow:      1, // Low priority
}

// Server handles task processing
type Server struct {
	server      *asynq.Server
	handler     *TaskHandler
	logger      *logger.Logger
	concurrency int
}

// retryDelay waits out rate limits and backs off exponentially otherwise.
func retryDelay(n int, err error, t *asynq.Task) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryIn
	}
	return asynq.DefaultRetryDelayFunc(n, err, t)
}

// NewServer creates a new task processing server
func NewServer(redisCfg config.RedisConfig, workerCfg config.WorkerConfig, handler *TaskHandler, logger *logger.Logger) *Server {
	concurrency := workerCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(
		redisClientOpt(redisCfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues:      queuePriorities,
			// Enable strict priority, meaning higher priority queues are processed first
			StrictPriority: true,
			// Rate-limited tasks are rescheduled without burning a retry
			IsFailure:      func(err error) bool { return !IsRateLimited(err) },
			RetryDelayFunc: retryDelay,
		},
	)

	return &Server{
		server:      server,
		handler:     handler,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Start starts the task processing server
func (s *Server) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()
	s.handler.Register(mux)

	s.logger.Info("starting task processing server concurrency %d queues %v", s.concurrency, queuePriorities)

	if err := s.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}

	return nil
}

// Stop stops the task processing server
func (s *Server) Stop() {
	s.server.Stop()
	s.logger.Info("task processing server stopped")
}

// Shutdown gracefully shuts down the task processing server
func (s *Server) Shutdown() {
	s.logger.Info("shutting down task processing server")
	s.server.Shutdown()
}
