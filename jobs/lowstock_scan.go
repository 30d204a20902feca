package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tontan-resort/tontan-pms/internal/inventory"
)

// TaskInventoryLowStockScan reports items at or below their reorder level.
const TaskInventoryLowStockScan = "inventory:lowstock_scan"

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the nightly scan.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockLister is the slice of the inventory module the scan needs.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]inventory.Item, error)
}

// NewHandleLowStockScan builds the handler for TaskInventoryLowStockScan.
func NewHandleLowStockScan(logger *slog.Logger, lister LowStockLister) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		items, err := lister.LowStock(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			logger.Info("low stock scan finished", slog.Int("items", 0))
			return nil
		}
		codes := make([]string, len(items))
		for i, it := range items {
			codes[i] = it.Code
		}
		logger.Warn("items below reorder level", slog.Int("items", len(items)), slog.Any("codes", codes))
		return nil
	}
}
