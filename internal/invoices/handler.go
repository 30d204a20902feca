package invoices

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tontan-resort/tontan-pms/internal/platform/httpx"
	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/number/{number}", h.handleGetByNumber)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Post("/{id}/send", h.handleSend)
	r.Post("/{id}/pay", h.handleMarkPaid)
	r.Post("/{id}/cancel", h.handleCancel)
}

type invoiceView struct {
	ID            int64      `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	BookingID     int64      `json:"booking_id"`
	GuestID       int64      `json:"guest_id"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	Discount      float64    `json:"discount"`
	TaxRate       float64    `json:"tax_rate"`
	TaxAmount     float64    `json:"tax_amount"`
	Total         float64    `json:"total"`
	Status        string     `json:"status"`
	IssueDate     time.Time  `json:"issue_date"`
	DueDate       time.Time  `json:"due_date"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func viewOf(inv *Invoice) invoiceView {
	return invoiceView{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     inv.BookingID,
		GuestID:       inv.GuestID,
		Items:         inv.Items,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		TaxRate:       inv.TaxRate,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		PaymentMethod: inv.PaymentMethod,
		PaidAt:        inv.PaidAt,
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
	}
}

type lineItemRequest struct {
	Description string  `json:"description" validate:"required,max=200"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gte=0"`
	Taxable     *bool   `json:"taxable"`
}

type invoiceRequest struct {
	BookingID int64             `json:"booking_id" validate:"required,gt=0"`
	GuestID   int64             `json:"guest_id" validate:"required,gt=0"`
	Items     []lineItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount  float64           `json:"discount" validate:"omitempty,gte=0"`
	TaxRate   *float64          `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	DueDate   time.Time         `json:"due_date"`
	Notes     string            `json:"notes" validate:"omitempty,max=1000"`
}

func (req invoiceRequest) input() Input {
	items := make([]LineItem, len(req.Items))
	for i, it := range req.Items {
		// Lines are taxable unless the request opts out.
		taxable := it.Taxable == nil || *it.Taxable
		items[i] = LineItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Taxable: taxable}
	}
	return Input{
		BookingID: req.BookingID,
		GuestID:   req.GuestID,
		Items:     items,
		Discount:  req.Discount,
		TaxRate:   req.TaxRate,
		DueDate:   req.DueDate,
		Notes:     req.Notes,
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	q := r.URL.Query()
	guestID, _ := strconv.ParseInt(q.Get("guest_id"), 10, 64)
	bookingID, _ := strconv.ParseInt(q.Get("booking_id"), 10, 64)
	list, total, err := h.service.List(r.Context(), ListFilter{
		Status:    Status(q.Get("status")),
		GuestID:   guestID,
		BookingID: bookingID,
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]invoiceView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	p := shared.NewPagination(page, perPage, total)
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{
		Items: views, Page: p.Page, PerPage: p.PerPage, Total: p.Total, TotalPages: p.TotalPages,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(inv))
}

func (h *Handler) handleGetByNumber(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(inv))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	inv, err := h.service.Create(r.Context(), req.input(), actor.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(inv))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req invoiceRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(inv))
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Send)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Cancel)
}

type payRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash credit_card bank_transfer promptpay"`
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req payRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.MarkPaid(r.Context(), id, req.PaymentMethod)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(inv))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (*Invoice, error)) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	inv, err := fn(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(inv))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrNoItems), errors.Is(err, ErrBadTransition):
		httpx.RespondError(w, httpx.ErrValidation)
	case errors.Is(err, seqcode.ErrSequenceOverflow), errors.Is(err, seqcode.ErrCodeExhausted):
		httpx.RespondError(w, httpx.ErrConflict)
	default:
		h.logger.Error("invoice operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
