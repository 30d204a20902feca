package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/tontan-resort/tontan-pms/internal/inventory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type recordingSender struct {
	to, token string
	err       error
}

func (r *recordingSender) SendResetEmail(_ context.Context, to, token string) error {
	r.to, r.token = to, token
	return r.err
}

func TestHandleSendResetEmail(t *testing.T) {
	sender := &recordingSender{}
	handler := NewHandleSendResetEmail(testLogger(), sender)

	task, err := NewSendResetEmailTask(SendResetEmailPayload{To: "staff@tontan.resort", Token: "tok123"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, "staff@tontan.resort", sender.to)
	require.Equal(t, "tok123", sender.token)
}

func TestHandleSendResetEmailSkipsRetryOnBadPayload(t *testing.T) {
	handler := NewHandleSendResetEmail(testLogger(), &recordingSender{})

	err := handler(context.Background(), asynq.NewTask(TaskSendResetEmail, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type stubSweeper struct {
	marked int64
	err    error
	calls  int
}

func (s *stubSweeper) SweepOverdue(_ context.Context) (int64, error) {
	s.calls++
	return s.marked, s.err
}

func TestHandleInvoiceOverdueSweep(t *testing.T) {
	sweeper := &stubSweeper{marked: 4}
	handler := NewHandleInvoiceOverdueSweep(testLogger(), sweeper)

	task, err := NewInvoiceOverdueSweepTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, 1, sweeper.calls)
}

func TestHandleInvoiceOverdueSweepPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	handler := NewHandleInvoiceOverdueSweep(testLogger(), &stubSweeper{err: boom})

	task, err := NewInvoiceOverdueSweepTask(time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, handler(context.Background(), task), boom)
}

type stubLister struct {
	items []inventory.Item
}

func (s *stubLister) LowStock(_ context.Context) ([]inventory.Item, error) {
	return s.items, nil
}

func TestHandleLowStockScan(t *testing.T) {
	lister := &stubLister{items: []inventory.Item{{Code: "RM-001"}, {Code: "BV-003"}}}
	handler := NewHandleLowStockScan(testLogger(), lister)

	task, err := NewLowStockScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
}
