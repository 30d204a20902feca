package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tontan-resort/tontan-pms/internal/platform/httpx"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        *Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw *Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/forgotpassword", h.handleForgotPassword)
	r.Put("/resetpassword/{token}", h.handleResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/me", h.handleMe)
		r.Put("/updatedetails", h.handleUpdateDetails)
		r.Put("/updatepassword", h.handleUpdatePassword)
	})
}

type userView struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	Department   string     `json:"department"`
	Position     string     `json:"position"`
	ProfileImage string     `json:"profile_image"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func viewOf(u *User) userView {
	return userView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Username:     u.Username,
		Role:         string(u.Role),
		Department:   string(u.Department),
		Position:     u.Position,
		ProfileImage: u.ProfileImage,
		PhoneNumber:  u.PhoneNumber,
		Status:       string(u.Status),
		LastLogin:    u.LastLogin,
	}
}

type registerRequest struct {
	Name       string `json:"name" validate:"required,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username" validate:"required,max=30"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       string `json:"role" validate:"omitempty,oneof=user staff manager admin"`
	Department string `json:"department" validate:"omitempty,oneof=front_desk housekeeping restaurant maintenance accounting warehouse management admin"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, token, err := h.service.Register(r.Context(), RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Role:       shared.Role(req.Role),
		Department: Department(req.Department),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			httpx.RespondError(w, httpx.ErrDuplicate)
			return
		}
		h.logger.Error("register failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"token": token, "user": viewOf(user)})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, token, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) || errors.Is(err, shared.ErrAccountDisabled) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "user": viewOf(user)})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	user, err := h.service.UserByID(r.Context(), actor.UserID)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(user))
}

type updateDetailsRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,numeric,min=9,max=15"`
	Position    string `json:"position" validate:"omitempty,max=100"`
}

func (h *Handler) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req updateDetailsRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	user, err := h.service.UpdateDetails(r.Context(), actor.UserID, req.Name, req.Email, req.PhoneNumber, req.Position)
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			httpx.RespondError(w, httpx.ErrDuplicate)
			return
		}
		h.logger.Error("update details failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(user))
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.UpdatePassword(r.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		h.logger.Error("update password failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Login string `json:"login" validate:"required"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Login); err != nil {
		h.logger.Error("forgot password failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// Deliberately identical response whether or not the account exists.
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "reset email sent if the account exists"})
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	token := chi.URLParam(r, "token")
	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Token", "reset token invalid or expired")
			return
		}
		h.logger.Error("reset password failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
