package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"adops/internal/events"
	"adops/internal/mail"
	"adops/internal/models"
	"adops/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const defaultReconcileBatch = 200

// Limiter throttles work per identifier.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	Window() time.Duration
}

// PayloadChecker reports whether a stored payload still exists.
type PayloadChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// RateLimitedError asks the server to retry after RetryIn without counting a failure.
type RateLimitedError struct {
	Identifier string
	RetryIn    time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited for %s, retry in %s", e.Identifier, e.RetryIn)
}

func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// TaskHandler handles task processing with improved error handling and logging
type TaskHandler struct {
	db       *gorm.DB
	logger   *logger.Logger
	mailer   mail.Sender
	payloads PayloadChecker
	limiter  Limiter
}

// NewTaskHandler creates a new TaskHandler. A nil limiter disables email throttling.
func NewTaskHandler(db *gorm.DB, mailer mail.Sender, payloads PayloadChecker, limiter Limiter) *TaskHandler {
	return &TaskHandler{
		db:       db,
		logger:   logger.New("task_handler"),
		mailer:   mailer,
		payloads: payloads,
		limiter:  limiter,
	}
}

// Register binds every task type to its handler.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeSendEmail, h.HandleSendEmail)
	mux.HandleFunc(TaskTypeStorageReconcile, h.HandleStorageReconcile)
}

func (h *TaskHandler) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var p EmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid email payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.To == "" || p.Template == "" {
		return fmt.Errorf("email payload needs a recipient and a template: %w", asynq.SkipRetry)
	}

	if h.limiter != nil {
		recipient := strings.ToLower(p.To)
		ok, err := h.limiter.Allow(ctx, recipient)
		if err != nil {
			// throttling is best effort; a redis outage must not stop mail
			h.logger.Warn("Rate limiter unavailable: %v", err)
		} else if !ok {
			return &RateLimitedError{Identifier: recipient, RetryIn: h.limiter.Window() / 4}
		}
	}

	return h.mailer.Send(ctx, p.To, p.Template, p.Data)
}

// HandleStorageReconcile marks active files whose payload is gone as inactive.
func (h *TaskHandler) HandleStorageReconcile(ctx context.Context, t *asynq.Task) error {
	var p ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("invalid reconcile payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaultReconcileBatch
	}

	query := h.db.WithContext(ctx).Model(&models.File{}).
		Where("status = ? AND is_deleted = ?", models.NodeStatusActive, false)
	if p.AccountID != "" {
		query = query.Where("account_id = ?", p.AccountID)
	}

	var checked, missing int
	var files []models.File
	result := query.FindInBatches(&files, p.BatchSize, func(tx *gorm.DB, batch int) error {
		for _, f := range files {
			checked++
			exists, err := h.payloads.Exists(ctx, f.StorageKey)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			missing++
			if err := h.db.WithContext(ctx).Model(&models.File{}).
				Where("id = ?", f.ID).
				Update("status", models.NodeStatusInactive).Error; err != nil {
				return err
			}
			h.logger.Warn("Payload %s of file %s is missing, marked inactive", f.StorageKey, f.ID)
			events.Emit(events.FilePayloadMissing, f.ID)
		}
		return nil
	})
	if result.Error != nil {
		return h.logger.Error("Storage reconcile failed after %d files", result.Error, checked)
	}

	h.logger.Success("Storage reconcile checked %d files, %d missing", checked, missing)
	return nil
}
