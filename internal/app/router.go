package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tontan-resort/tontan-pms/internal/auth"
	"github.com/tontan-resort/tontan-pms/internal/bookings"
	"github.com/tontan-resort/tontan-pms/internal/dashboard"
	"github.com/tontan-resort/tontan-pms/internal/guests"
	"github.com/tontan-resort/tontan-pms/internal/inventory"
	"github.com/tontan-resort/tontan-pms/internal/invoices"
	"github.com/tontan-resort/tontan-pms/internal/observability"
	"github.com/tontan-resort/tontan-pms/internal/rooms"
	"github.com/tontan-resort/tontan-pms/internal/shared"
	"github.com/tontan-resort/tontan-pms/internal/uploads"
	"github.com/tontan-resort/tontan-pms/internal/users"
	"github.com/tontan-resort/tontan-pms/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   *auth.Middleware
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	GuestsHandler    *guests.Handler
	RoomsHandler     *rooms.Handler
	BookingsHandler  *bookings.Handler
	InvoicesHandler  *invoices.Handler
	InventoryHandler *inventory.Handler
	UploadsHandler   *uploads.Handler
	DashboardHandler *dashboard.Handler
	ReportsHandler   *report.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/rooms", params.RoomsHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Use(params.AuthMiddleware.RequireRole(shared.RoleAdmin))
				params.UsersHandler.MountRoutes(r)
			})
			r.Route("/guests", params.GuestsHandler.MountRoutes)
			r.Route("/bookings", params.BookingsHandler.MountRoutes)
			r.Route("/invoices", params.InvoicesHandler.MountRoutes)
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
			r.Route("/upload", params.UploadsHandler.MountRoutes)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			if params.ReportsHandler != nil {
				r.Route("/reports", params.ReportsHandler.MountRoutes)
			}
		})
	})

	return r
}
