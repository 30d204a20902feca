package rooms

import (
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

// Handler exposes room endpoints. Listing and reading are open to any
// authenticated staff; writes are gated by the supplied middleware.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	auth      func(http.Handler) http.Handler
	manage    func(http.Handler) http.Handler
	admin     func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. auth gates every mutating route, manage
// gates create/update to admin and manager, admin gates deletion.
func NewHandler(logger *slog.Logger, service *Service, auth, manage, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), auth: auth, manage: manage, admin: admin}
}

// MountRoutes registers room routes. Listing and lookup stay open so the
// public site can show availability; everything else requires a login.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Put("/{id}/status", h.handleSetStatus)
		r.Put("/{id}/cleaning", h.handleSetCleaning)
		r.With(h.manage).Post("/", h.handleCreate)
		r.With(h.manage).Put("/{id}", h.handleUpdate)
		r.With(h.admin).Delete("/{id}", h.handleDelete)
	})
}

type roomView struct {
	ID             int64      `json:"id"`
	Number         int        `json:"number"`
	Floor          int        `json:"floor"`
	Type           string     `json:"type"`
	Price          float64    `json:"price"`
	Capacity       int        `json:"capacity"`
	Description    string     `json:"description,omitempty"`
	Amenities      []string   `json:"amenities"`
	Status         string     `json:"status"`
	CleaningStatus string     `json:"cleaning_status"`
	LastCleaned    *time.Time `json:"last_cleaned,omitempty"`
	Image          string     `json:"image"`
	Notes          string     `json:"notes,omitempty"`
	IsActive       bool       `json:"is_active"`
}

func viewOf(rm *Room) roomView {
	return roomView{
		ID:             rm.ID,
		Number:         rm.Number,
		Floor:          rm.Floor,
		Type:           string(rm.Type),
		Price:          rm.Price,
		Capacity:       rm.Capacity,
		Description:    rm.Description,
		Amenities:      rm.Amenities,
		Status:         string(rm.Status),
		CleaningStatus: string(rm.CleaningStatus),
		LastCleaned:    rm.LastCleaned,
		Image:          rm.Image,
		Notes:          rm.Notes,
		IsActive:       rm.IsActive,
	}
}

type roomRequest struct {
	Number      int      `json:"number" validate:"required,gt=0"`
	Floor       int      `json:"floor" validate:"required,gt=0"`
	Type        string   `json:"type" validate:"required,oneof=Deluxe Superior Suite Family"`
	Price       float64  `json:"price" validate:"required,gte=0"`
	Capacity    int      `json:"capacity" validate:"omitempty,gt=0"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Amenities   []string `json:"amenities"`
	Notes       string   `json:"notes" validate:"omitempty,max=1000"`
	IsActive    *bool    `json:"is_active"`
}

func (req roomRequest) input() Input {
	return Input{
		Number:      req.Number,
		Floor:       req.Floor,
		Type:        RoomType(req.Type),
		Price:       req.Price,
		Capacity:    req.Capacity,
		Description: req.Description,
		Amenities:   req.Amenities,
		Notes:       req.Notes,
		IsActive:    req.IsActive,
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	q := r.URL.Query()
	floor, _ := strconv.Atoi(q.Get("floor"))
	list, total, err := h.service.List(r.Context(), ListFilter{
		Status:     Status(q.Get("status")),
		Type:       RoomType(q.Get("type")),
		Floor:      floor,
		ActiveOnly: q.Get("include_inactive") != "true",
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		h.logger.Error("list rooms failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]roomView, len(list))
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
	room, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(room))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	room, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		if errors.Is(err, ErrDuplicateNumber) {
			httpx.RespondError(w, httpx.ErrDuplicate)
			return
		}
		h.logger.Error("create room failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(room))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req roomRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	room, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrDuplicateNumber):
			httpx.RespondError(w, httpx.ErrDuplicate)
		default:
			h.logger.Error("update room failed", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(room))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("delete room failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=available occupied reserved maintenance cleaning"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req statusRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetStatus(r.Context(), id, Status(req.Status)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cleaningRequest struct {
	Status string `json:"status" validate:"required,oneof=clean dirty cleaning"`
}

func (h *Handler) handleSetCleaning(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req cleaningRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetCleaning(r.Context(), id, CleaningStatus(req.Status)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
