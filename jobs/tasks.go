// Package jobs holds the background task definitions and the Asynq worker
// that runs them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSendResetEmail delivers a password reset token to a user.
	TaskSendResetEmail = "mail:send_reset"
)

// SendResetEmailPayload carries the reset delivery details.
type SendResetEmailPayload struct {
	To    string `json:"to"`
	Token string `json:"token"`
}

// NewSendResetEmailTask constructs an Asynq task.
func NewSendResetEmailTask(payload SendResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendResetEmail, data), nil
}

// ResetEmailSender delivers the reset email. The SMTP implementation lives
// in the worker binary; tests substitute a recorder.
type ResetEmailSender interface {
	SendResetEmail(ctx context.Context, to, token string) error
}

// NewHandleSendResetEmail builds the handler for TaskSendResetEmail.
func NewHandleSendResetEmail(logger *slog.Logger, sender ResetEmailSender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendResetEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := sender.SendResetEmail(ctx, payload.To, payload.Token); err != nil {
			logger.Error("reset email delivery failed", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		logger.Info("reset email sent", slog.String("to", payload.To))
		return nil
	}
}
