package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"adops/internal/config"
	"adops/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Enqueuer puts a job on the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error
}

// TaskClient handles task enqueuing with improved error handling and context support
type TaskClient struct {
	client      *asynq.Client
	logger      *logger.Logger
	redisClient *redis.Client
}

func redisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(cfg config.RedisConfig) *TaskClient {
	return &TaskClient{
		client: asynq.NewClient(redisClientOpt(cfg)),
		redisClient: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger.New("TASKS"),
	}
}

// Redis returns the plain redis client shared with the rate limiter.
func (c *TaskClient) Redis() *redis.Client {
	return c.redisClient
}

// Enqueue marshals payload to JSON and submits it. Options default per task type.
func (c *TaskClient) Enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	opts = append(defaultOptions(taskType), opts...)
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return c.logger.Error("Failed to enqueue %s", err, taskType)
	}

	c.logger.Info("Enqueued %s id=%s queue=%s", taskType, info.ID, info.Queue)
	return nil
}

func defaultOptions(taskType string) []asynq.Option {
	switch taskType {
	case TaskTypeSendEmail:
		return []asynq.Option{asynq.Queue(QueueCritical), asynq.MaxRetry(RetryMax), asynq.Timeout(TimeoutShort)}
	case TaskTypeStorageReconcile:
		return []asynq.Option{asynq.Queue(QueueLow), asynq.MaxRetry(RetryMin), asynq.Timeout(TimeoutLong)}
	}
	return []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(RetryDefault), asynq.Timeout(TimeoutMedium)}
}

// Close closes the underlying asynq and redis clients
func (c *TaskClient) Close() error {
	if err := c.redisClient.Close(); err != nil {
		c.logger.Warn("Failed to close redis client: %v", err)
	}
	return c.client.Close()
}
