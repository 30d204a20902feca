package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tontan-resort/tontan-pms/internal/app"
	"github.com/tontan-resort/tontan-pms/internal/inventory"
	"github.com/tontan-resort/tontan-pms/internal/invoices"
	"github.com/tontan-resort/tontan-pms/internal/platform/db"
	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/jobs"
)

// smtpSender delivers reset emails through the configured SMTP relay.
type smtpSender struct {
	addr string
	from string
}

func (s smtpSender) SendResetEmail(_ context.Context, to, token string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Tontan Resort password reset\r\n\r\n"+
		"Use this token to reset your password within the next few minutes:\r\n\r\n%s\r\n",
		s.from, to, token)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	invoiceCodes := seqcode.NewGenerator("INV", seqcode.PgLastCode(pool, "invoices", "invoice_number"))
	invoicesService := invoices.NewService(invoices.NewPgRepository(pool), invoiceCodes)
	inventoryService := inventory.NewService(inventory.NewPgRepository(pool))

	sender := smtpSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.SMTPFrom,
	}

	sweepTask, err := jobs.NewInvoiceOverdueSweepTask(time.Now())
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	scanTask, err := jobs.NewLowStockScanTask(time.Now())
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSendResetEmail, Handler: jobs.NewHandleSendResetEmail(logger, sender)},
			{Type: jobs.TaskInvoiceOverdueSweep, Handler: jobs.NewHandleInvoiceOverdueSweep(logger, invoicesService)},
			{Type: jobs.TaskInventoryLowStockScan, Handler: jobs.NewHandleLowStockScan(logger, inventoryService)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: sweepTask},
			{Spec: "30 1 * * *", Task: scanTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
