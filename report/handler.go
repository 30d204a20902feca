package report

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tontan-resort/tontan-pms/internal/guests"
	"github.com/tontan-resort/tontan-pms/internal/invoices"
	"github.com/tontan-resort/tontan-pms/internal/platform/httpx"
)

// InvoiceSource looks up invoices for rendering.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// GuestSource looks up the guest an invoice is billed to.
type GuestSource interface {
	Get(ctx context.Context, id int64) (*guests.Guest, error)
}

// Handler exposes PDF export endpoints.
type Handler struct {
	logger   *slog.Logger
	client   *Client
	invoices InvoiceSource
	guests   GuestSource
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, client *Client, inv InvoiceSource, g GuestSource) *Handler {
	return &Handler{logger: logger, client: client, invoices: inv, guests: g}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.handlePing)
	r.Get("/invoices/{id}", h.handleInvoicePDF)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg unreachable", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf renderer is unreachable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	guest, err := h.guests.Get(r.Context(), inv.GuestID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	html, err := InvoiceHTML(inv, guest)
	if err != nil {
		h.logger.Error("render invoice html", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.client.ConvertHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("convert invoice pdf", slog.String("invoice", inv.InvoiceNumber), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf renderer failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename=`+inv.InvoiceNumber+`.pdf`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
