package guests

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

// Handler exposes guest endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	restrict  func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. restrict gates destructive routes to
// admin and manager roles.
func NewHandler(logger *slog.Logger, service *Service, restrict func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), restrict: restrict}
}

// MountRoutes registers guest routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Group(func(r chi.Router) {
		r.Use(h.restrict)
		r.Delete("/{id}", h.handleDelete)
	})
}

type guestView struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone"`
	IDType      string     `json:"id_type"`
	IDNumber    string     `json:"id_number,omitempty"`
	Nationality string     `json:"nationality"`
	Address     Address    `json:"address"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	VIP         bool       `json:"vip"`
	Preferences []string   `json:"preferences,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	LastVisit   *time.Time `json:"last_visit,omitempty"`
	VisitCount  int        `json:"visit_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

func viewOf(g *Guest) guestView {
	return guestView{
		ID:          g.ID,
		Title:       g.Title,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		FullName:    g.FullName(),
		Email:       g.Email,
		Phone:       g.Phone,
		IDType:      g.IDType,
		IDNumber:    g.IDNumber,
		Nationality: g.Nationality,
		Address:     g.Address,
		DateOfBirth: g.DateOfBirth,
		VIP:         g.VIP,
		Preferences: g.Preferences,
		Notes:       g.Notes,
		LastVisit:   g.LastVisit,
		VisitCount:  g.VisitCount,
		CreatedAt:   g.CreatedAt,
	}
}

type guestRequest struct {
	Title       string     `json:"title"`
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Phone       string     `json:"phone" validate:"required,numeric,min=9,max=15"`
	IDType      string     `json:"id_type"`
	IDNumber    string     `json:"id_number" validate:"omitempty,max=50"`
	Nationality string     `json:"nationality"`
	Address     Address    `json:"address"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	VIP         bool       `json:"vip"`
	Preferences []string   `json:"preferences"`
	Notes       string     `json:"notes" validate:"omitempty,max=1000"`
}

func (req guestRequest) input() Input {
	return Input{
		Title:       req.Title,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		IDType:      req.IDType,
		IDNumber:    req.IDNumber,
		Nationality: req.Nationality,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
		VIP:         req.VIP,
		Preferences: req.Preferences,
		Notes:       req.Notes,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	q := r.URL.Query()
	list, total, err := h.service.List(r.Context(), ListFilter{
		Search:  q.Get("search"),
		VIPOnly: q.Get("vip") == "true",
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.logger.Error("list guests failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]guestView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	p := shared.NewPagination(page, perPage, total)
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{
		Items: views, Page: p.Page, PerPage: p.PerPage, Total: p.Total, TotalPages: p.TotalPages,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	guest, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(guest))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	guest, err := h.service.Create(r.Context(), req.input(), actor.UserID)
	if err != nil {
		h.logger.Error("create guest failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(guest))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req guestRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	guest, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("update guest failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(guest))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("delete guest failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
