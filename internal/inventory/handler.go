package inventory

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
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Handler exposes inventory endpoints. Writes are gated by the supplied
// middleware: manage for create/update and stock moves, admin for deletion.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	manage    func(http.Handler) http.Handler
	admin     func(http.Handler) http.Handler
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, manage, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), manage: manage, admin: admin}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/lowstock", h.handleLowStock)
	r.Get("/code/{code}", h.handleGetByCode)
	r.Get("/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(h.manage)
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
		r.Post("/{id}/receive", h.handleReceive)
		r.Post("/{id}/issue", h.handleIssue)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.admin)
		r.Delete("/{id}", h.handleDelete)
	})
}

type itemView struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Unit          string     `json:"unit"`
	CurrentStock  int        `json:"current_stock"`
	MinStock      int        `json:"min_stock"`
	LowStock      bool       `json:"low_stock"`
	CostPrice     float64    `json:"cost_price"`
	SellingPrice  float64    `json:"selling_price"`
	Location      string     `json:"location"`
	Supplier      string     `json:"supplier,omitempty"`
	Description   string     `json:"description,omitempty"`
	Image         string     `json:"image"`
	IsActive      bool       `json:"is_active"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	LastRestocked *time.Time `json:"last_restocked,omitempty"`
}

func viewOf(it *Item) itemView {
	return itemView{
		ID:            it.ID,
		Code:          it.Code,
		Name:          it.Name,
		Category:      string(it.Category),
		Unit:          it.Unit,
		CurrentStock:  it.CurrentStock,
		MinStock:      it.MinStock,
		LowStock:      it.LowStock(),
		CostPrice:     it.CostPrice,
		SellingPrice:  it.SellingPrice,
		Location:      it.Location,
		Supplier:      it.Supplier,
		Description:   it.Description,
		Image:         it.Image,
		IsActive:      it.IsActive,
		ExpiryDate:    it.ExpiryDate,
		LastRestocked: it.LastRestocked,
	}
}

type itemRequest struct {
	Code         string     `json:"code" validate:"required,max=50"`
	Name         string     `json:"name" validate:"required,max=200"`
	Category     string     `json:"category" validate:"required"`
	Unit         string     `json:"unit" validate:"omitempty,max=50"`
	CurrentStock int        `json:"current_stock" validate:"omitempty,gte=0"`
	MinStock     int        `json:"min_stock" validate:"omitempty,gte=0"`
	CostPrice    float64    `json:"cost_price" validate:"required,gte=0"`
	SellingPrice float64    `json:"selling_price" validate:"required,gte=0"`
	Location     string     `json:"location" validate:"omitempty,max=100"`
	Supplier     string     `json:"supplier" validate:"omitempty,max=200"`
	Description  string     `json:"description" validate:"omitempty,max=500"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	IsActive     *bool      `json:"is_active"`
}

func (req itemRequest) input() Input {
	return Input{
		Code:         req.Code,
		Name:         req.Name,
		Category:     Category(req.Category),
		Unit:         req.Unit,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Location:     req.Location,
		Supplier:     req.Supplier,
		Description:  req.Description,
		ExpiryDate:   req.ExpiryDate,
		IsActive:     req.IsActive,
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	q := r.URL.Query()
	list, total, err := h.service.List(r.Context(), ListFilter{
		Category:   Category(q.Get("category")),
		Search:     q.Get("search"),
		LowOnly:    q.Get("low_stock") == "true",
		ActiveOnly: q.Get("include_inactive") != "true",
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		h.logger.Error("list inventory failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]itemView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	p := shared.NewPagination(page, perPage, total)
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{
		Items: views, Page: p.Page, PerPage: p.PerPage, Total: p.Total, TotalPages: p.TotalPages,
	})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock listing failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]itemView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views, "count": len(views)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	it, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(it))
}

func (h *Handler) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	it, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(it))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	it, err := h.service.Create(r.Context(), req.input(), actor.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(it))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req itemRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	it, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(it))
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

type stockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	h.handleStockMove(w, r, h.service.Receive)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	h.handleStockMove(w, r, h.service.Issue)
}

func (h *Handler) handleStockMove(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, qty int) (*Item, error)) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req stockRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	it, err := fn(r.Context(), id, req.Quantity)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(it))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateCode):
		httpx.RespondError(w, httpx.ErrDuplicate)
	case errors.Is(err, ErrInsufficientStock):
		httpx.RespondError(w, httpx.ErrConflict)
	default:
		h.logger.Error("inventory operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
