package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// ErrSelfDeletion indicates an admin tried to delete their own account.
var ErrSelfDeletion = errors.New("users: cannot delete own account")

// Service wraps user management rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns users matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// CreateInput carries a new account created by an administrator.
type CreateInput struct {
	Name       string
	Email      string
	Username   string
	Password   string
	Role       shared.Role
	Department string
	Position   string
	Phone      string
}

// Create adds a staff account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if !in.Role.Valid() {
		return nil, fmt.Errorf("users: unknown role %q", in.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	position := in.Position
	if position == "" {
		position = "Staff"
	}
	user := User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   in.Department,
		Position:     position,
		ProfileImage: "default-avatar.jpg",
		PhoneNumber:  in.Phone,
		Status:       "active",
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return &user, nil
}

// UpdateInput carries editable account fields.
type UpdateInput struct {
	Name       string
	Email      string
	Role       shared.Role
	Department string
	Position   string
	Phone      string
	Status     string
}

// Update edits an account.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("users: unknown role %q", in.Role)
	}
	user.Name = in.Name
	user.Email = in.Email
	user.Role = in.Role
	user.Department = in.Department
	user.Position = in.Position
	user.PhoneNumber = in.Phone
	user.Status = in.Status
	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return ErrSelfDeletion
	}
	return s.repo.Delete(ctx, id)
}
