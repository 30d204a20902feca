package uploads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tontan-resort/tontan-pms/internal/platform/httpx"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Handler exposes the image upload endpoints. Each route carries the role
// gate of the record it touches: rooms are managed by admins and managers,
// inventory by admins and staff, and deletes are admin only.
type Handler struct {
	logger  *slog.Logger
	service *Service
	room    func(http.Handler) http.Handler
	stock   func(http.Handler) http.Handler
	admin   func(http.Handler) http.Handler
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, room, stock, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, room: room, stock: stock, admin: admin}
}

// MountRoutes registers upload routes. The image travels as the "image"
// field of a multipart form.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/profile", h.handleOwnProfile)
	r.With(h.room).Post("/room/{id}", h.handleRoom)
	r.With(h.stock).Post("/inventory/{id}", h.handleInventory)
	r.With(h.admin).Delete("/{folder}/{publicID}", h.handleDelete)
}

// handleOwnProfile replaces the authenticated user's own avatar.
func (h *Handler) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	h.replace(w, r, KindProfile, actor.UserID)
}

func (h *Handler) handleRoom(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, KindRoom)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, KindInventory)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, kind Kind) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	h.replace(w, r, kind, id)
}

// handleDelete removes a stored asset by folder and public id.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "folder"))
	if !kind.Valid() {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Remove(r.Context(), kind, chi.URLParam(r, "publicID")); err != nil {
		h.logger.Error("delete image failed", slog.String("folder", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "image deleted"})
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request, kind Kind, id int64) {
	profile := Profiles[kind]
	// Leave headroom for the multipart framing around the payload.
	r.Body = http.MaxBytesReader(w, r.Body, profile.MaxBytes+64<<10)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "file exceeds the size limit")
			return
		}
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	defer file.Close()

	asset, err := h.service.Replace(r.Context(), kind, id, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrUnsupportedFormat):
			httpx.RespondError(w, httpx.ErrValidation)
		case errors.Is(err, ErrTooLarge):
			httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "file exceeds the size limit")
		default:
			h.logger.Error("upload failed", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": asset.URL})
}
