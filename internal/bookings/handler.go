package bookings

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

// Handler exposes booking endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	manage    func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. manage guards destructive routes.
func NewHandler(logger *slog.Logger, service *Service, manage func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), manage: manage}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/number/{number}", h.handleGetByNumber)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Post("/{id}/confirm", h.handleConfirm)
	r.Post("/{id}/checkin", h.handleCheckIn)
	r.Post("/{id}/checkout", h.handleCheckOut)
	r.Post("/{id}/cancel", h.handleCancel)
	r.Post("/{id}/payments", h.handlePayment)
	r.With(h.manage).Delete("/{id}", h.handleDelete)
}

type bookingView struct {
	ID              int64      `json:"id"`
	BookingNumber   string     `json:"booking_number"`
	GuestID         int64      `json:"guest_id"`
	RoomID          int64      `json:"room_id"`
	CheckInDate     time.Time  `json:"check_in_date"`
	CheckOutDate    time.Time  `json:"check_out_date"`
	Nights          int        `json:"nights"`
	Adults          int        `json:"adults"`
	Children        int        `json:"children"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	RoomRate        float64    `json:"room_rate"`
	TotalAmount     float64    `json:"total_amount"`
	PaidAmount      float64    `json:"paid_amount"`
	SpecialRequests string     `json:"special_requests,omitempty"`
	Source          string     `json:"source,omitempty"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `json:"checked_out_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func viewOf(b *Booking) bookingView {
	return bookingView{
		ID:              b.ID,
		BookingNumber:   b.BookingNumber,
		GuestID:         b.GuestID,
		RoomID:          b.RoomID,
		CheckInDate:     b.CheckInDate,
		CheckOutDate:    b.CheckOutDate,
		Nights:          b.Nights,
		Adults:          b.Adults,
		Children:        b.Children,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		RoomRate:        b.RoomRate,
		TotalAmount:     b.TotalAmount,
		PaidAmount:      b.PaidAmount,
		SpecialRequests: b.SpecialRequests,
		Source:          b.Source,
		CheckedInAt:     b.CheckedInAt,
		CheckedOutAt:    b.CheckedOutAt,
		CancelledAt:     b.CancelledAt,
		CreatedAt:       b.CreatedAt,
	}
}

type bookingRequest struct {
	GuestID         int64     `json:"guest_id" validate:"required,gt=0"`
	RoomID          int64     `json:"room_id" validate:"required,gt=0"`
	CheckInDate     time.Time `json:"check_in_date" validate:"required"`
	CheckOutDate    time.Time `json:"check_out_date" validate:"required"`
	Adults          int       `json:"adults" validate:"omitempty,gt=0"`
	Children        int       `json:"children" validate:"omitempty,gte=0"`
	SpecialRequests string    `json:"special_requests" validate:"omitempty,max=1000"`
	Source          string    `json:"source" validate:"omitempty,max=50"`
}

func (req bookingRequest) input() Input {
	return Input{
		GuestID:         req.GuestID,
		RoomID:          req.RoomID,
		CheckInDate:     req.CheckInDate,
		CheckOutDate:    req.CheckOutDate,
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequests: req.SpecialRequests,
		Source:          req.Source,
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	q := r.URL.Query()
	guestID, _ := strconv.ParseInt(q.Get("guest_id"), 10, 64)
	roomID, _ := strconv.ParseInt(q.Get("room_id"), 10, 64)
	filter := ListFilter{
		Status:  Status(q.Get("status")),
		GuestID: guestID,
		RoomID:  roomID,
		Page:    page,
		PerPage: perPage,
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = t
		}
	}
	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list bookings failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]bookingView, len(list))
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
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleGetByNumber(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	b, err := h.service.Create(r.Context(), req.input(), actor.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(b))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req bookingRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Confirm)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.CheckIn)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.CheckOut)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Cancel)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (*Booking, error)) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	b, err := fn(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(b))
}

type paymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req paymentRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.RecordPayment(r.Context(), id, req.Amount)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidDates), errors.Is(err, ErrBadTransition):
		httpx.RespondError(w, httpx.ErrValidation)
	case errors.Is(err, ErrRoomUnavailable):
		httpx.RespondError(w, httpx.ErrConflict)
	case errors.Is(err, seqcode.ErrSequenceOverflow), errors.Is(err, seqcode.ErrCodeExhausted):
		httpx.RespondError(w, httpx.ErrConflict)
	default:
		h.logger.Error("booking operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
