package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskInvoiceOverdueSweep flips sent invoices past their due date to overdue.
const TaskInvoiceOverdueSweep = "invoice:overdue_sweep"

// InvoiceOverdueSweepPayload carries scheduling metadata.
type InvoiceOverdueSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewInvoiceOverdueSweepTask constructs an Asynq task for the daily sweep.
func NewInvoiceOverdueSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(InvoiceOverdueSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceOverdueSweep, body, asynq.Queue(QueueDefault)), nil
}

// OverdueSweeper is the slice of the invoices module the sweep needs.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int64, error)
}

// NewHandleInvoiceOverdueSweep builds the handler for TaskInvoiceOverdueSweep.
func NewHandleInvoiceOverdueSweep(logger *slog.Logger, sweeper OverdueSweeper) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InvoiceOverdueSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		n, err := sweeper.SweepOverdue(ctx)
		if err != nil {
			return err
		}
		logger.Info("overdue sweep finished", slog.Int64("marked", n))
		return nil
	}
}
