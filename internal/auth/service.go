package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// ErrResetTokenInvalid indicates an unknown or expired reset token.
var ErrResetTokenInvalid = errors.New("auth: reset token invalid or expired")

// ResetMailer enqueues the password-reset email.
type ResetMailer interface {
	EnqueueResetEmail(ctx context.Context, to, token string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	redis    *redis.Client
	mailer   ResetMailer
	resetTTL time.Duration
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenManager, rdb *redis.Client, mailer ResetMailer, resetTTL time.Duration) *Service {
	return &Service{repo: repo, tokens: tokens, redis: rdb, mailer: mailer, resetTTL: resetTTL}
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Name       string
	Email      string
	Username   string
	Password   string
	Role       shared.Role
	Department Department
}

// Register creates an account and returns it with a signed token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if in.Role == "" {
		in.Role = shared.RoleStaff
	}
	if in.Department == "" {
		in.Department = DepartmentFrontDesk
	}
	if !in.Role.Valid() || !in.Department.Valid() {
		return nil, "", fmt.Errorf("auth: unknown role or department")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("auth: hash password: %w", err)
	}

	user := User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   in.Department,
		Position:     "Staff",
		ProfileImage: "default-avatar.jpg",
		Status:       StatusActive,
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}
	user.ID = id

	token, err := s.tokens.Issue(id, time.Now())
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Authenticate validates username-or-email plus password credentials and
// returns the user with a fresh token.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, string, error) {
	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return nil, "", shared.ErrAccountDisabled
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", err
	}
	user.LastLogin = &now

	token, err := s.tokens.Issue(user.ID, now)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UserByID loads the account behind a verified token. Disabled accounts are
// treated as unauthenticated.
func (s *Service) UserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status != StatusActive {
		return nil, shared.ErrAccountDisabled
	}
	return user, nil
}

// UpdateDetails changes the caller's profile fields.
func (s *Service) UpdateDetails(ctx context.Context, id int64, name, email, phone, position string) (*User, error) {
	if err := s.repo.UpdateDetails(ctx, id, name, email, phone, position); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// SetProfileImage swaps the stored profile image and returns the previous
// reference so the caller can clean it up.
func (s *Service) SetProfileImage(ctx context.Context, id int64, image string) (string, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateProfileImage(ctx, id, image); err != nil {
		return "", err
	}
	return user.ProfileImage, nil
}

// UpdatePassword verifies the current password before replacing it.
func (s *Service) UpdatePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// ForgotPassword issues a single-use reset token. It reports success for
// unknown logins so the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, login string) error {
	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	if err := s.redis.Set(ctx, resetKey(token), user.ID, s.resetTTL).Err(); err != nil {
		return fmt.Errorf("auth: store reset token: %w", err)
	}
	if s.mailer != nil {
		if err := s.mailer.EnqueueResetEmail(ctx, user.Email, token); err != nil {
			return fmt.Errorf("auth: enqueue reset email: %w", err)
		}
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	userID, err := s.redis.GetDel(ctx, resetKey(token)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("auth: read reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

func resetKey(token string) string {
	return "pwreset:" + token
}
