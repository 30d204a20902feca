package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tontan-resort/tontan-pms/internal/app"
	"github.com/tontan-resort/tontan-pms/internal/auth"
	"github.com/tontan-resort/tontan-pms/internal/bookings"
	"github.com/tontan-resort/tontan-pms/internal/dashboard"
	"github.com/tontan-resort/tontan-pms/internal/guests"
	"github.com/tontan-resort/tontan-pms/internal/inventory"
	"github.com/tontan-resort/tontan-pms/internal/invoices"
	"github.com/tontan-resort/tontan-pms/internal/observability"
	"github.com/tontan-resort/tontan-pms/internal/platform/cache"
	"github.com/tontan-resort/tontan-pms/internal/platform/db"
	"github.com/tontan-resort/tontan-pms/internal/rooms"
	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
	"github.com/tontan-resort/tontan-pms/internal/uploads"
	"github.com/tontan-resort/tontan-pms/internal/users"
	"github.com/tontan-resort/tontan-pms/jobs"
	"github.com/tontan-resort/tontan-pms/report"
)

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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	codeHooks := seqcode.WithAssignHooks(metrics.DocumentIssued, metrics.CodeConflict)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	authRepo := auth.NewPgRepository(pool)
	authService := auth.NewService(authRepo, tokens, redisClient, jobClient, cfg.ResetTokenTTL)
	authMW := auth.NewMiddleware(tokens, authService)
	authHandler := auth.NewHandler(logger, authService, authMW)

	manageOnly := authMW.RequireRole(shared.RoleAdmin, shared.RoleManager)
	stockOnly := authMW.RequireRole(shared.RoleAdmin, shared.RoleStaff)
	adminOnly := authMW.RequireRole(shared.RoleAdmin)

	usersRepo := users.NewPgRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	guestsRepo := guests.NewPgRepository(pool)
	guestsService := guests.NewService(guestsRepo)
	guestsHandler := guests.NewHandler(logger, guestsService, manageOnly)

	roomsRepo := rooms.NewPgRepository(pool)
	roomsService := rooms.NewService(roomsRepo)
	roomsHandler := rooms.NewHandler(logger, roomsService, authMW.RequireAuth, manageOnly, adminOnly)

	bookingCodes := seqcode.NewGenerator("BK", seqcode.PgLastCode(pool, "bookings", "booking_number"), codeHooks)
	bookingsRepo := bookings.NewPgRepository(pool)
	bookingsService := bookings.NewService(bookingsRepo, roomsService, bookingCodes)
	bookingsHandler := bookings.NewHandler(logger, bookingsService, manageOnly)

	invoiceCodes := seqcode.NewGenerator("INV", seqcode.PgLastCode(pool, "invoices", "invoice_number"), codeHooks)
	invoicesRepo := invoices.NewPgRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, invoiceCodes)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)

	inventoryRepo := inventory.NewPgRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, manageOnly, adminOnly)

	var uploadsHandler *uploads.Handler
	if cfg.CloudinaryURL != "" {
		store, err := uploads.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			logger.Error("cloudinary setup", slog.Any("error", err))
			os.Exit(1)
		}
		uploadsService := uploads.NewService(store, map[uploads.Kind]uploads.Target{
			uploads.KindProfile: {
				Default: "default-avatar.jpg",
				Set:     authService.SetProfileImage,
			},
			uploads.KindRoom: {
				Default: "default-room.jpg",
				Set:     roomsService.SetImage,
			},
			uploads.KindInventory: {
				Default: "default-inventory.jpg",
				Set:     inventoryService.SetImage,
			},
		})
		uploadsHandler = uploads.NewHandler(logger, uploadsService, manageOnly, stockOnly, adminOnly)
	} else {
		logger.Warn("CLOUDINARY_URL not set, image uploads disabled")
		uploadsHandler = uploads.NewHandler(logger, uploads.NewService(nil, nil), manageOnly, stockOnly, adminOnly)
	}

	dashboardRepo := dashboard.NewPgRepository(pool)
	dashboardService := dashboard.NewService(logger, dashboardRepo, redisClient)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	var reportsHandler *report.Handler
	if cfg.GotenbergURL != "" {
		reportsHandler = report.NewHandler(logger, report.NewClient(cfg.GotenbergURL), invoicesService, guestsService)
	} else {
		logger.Warn("GOTENBERG_URL not set, pdf export disabled")
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthMiddleware:   authMW,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		GuestsHandler:    guestsHandler,
		RoomsHandler:     roomsHandler,
		BookingsHandler:  bookingsHandler,
		InvoicesHandler:  invoicesHandler,
		InventoryHandler: inventoryHandler,
		UploadsHandler:   uploadsHandler,
		DashboardHandler: dashboardHandler,
		ReportsHandler:   reportsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
