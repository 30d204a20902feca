package guests

import (
	"context"
	"time"
)

// Service wraps guest profile rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns guests matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Guest, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one guest.
func (s *Service) Get(ctx context.Context, id int64) (*Guest, error) {
	return s.repo.Get(ctx, id)
}

// Input carries guest profile fields.
type Input struct {
	Title       string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	IDType      string
	IDNumber    string
	Nationality string
	Address     Address
	DateOfBirth *time.Time
	VIP         bool
	Preferences []string
	Notes       string
}

func applyDefaults(in *Input) {
	if in.Title == "" {
		in.Title = "นาย"
	}
	if in.IDType == "" {
		in.IDType = "บัตรประชาชน"
	}
	if in.Nationality == "" {
		in.Nationality = "ไทย"
	}
	if in.Address.Country == "" {
		in.Address.Country = "ไทย"
	}
}

// Create registers a guest profile.
func (s *Service) Create(ctx context.Context, in Input, createdBy int64) (*Guest, error) {
	applyDefaults(&in)
	guest := Guest{
		Title:       in.Title,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Phone:       in.Phone,
		IDType:      in.IDType,
		IDNumber:    in.IDNumber,
		Nationality: in.Nationality,
		Address:     in.Address,
		DateOfBirth: in.DateOfBirth,
		VIP:         in.VIP,
		Preferences: in.Preferences,
		Notes:       in.Notes,
		CreatedBy:   createdBy,
	}
	id, err := s.repo.Create(ctx, guest)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Update edits a guest profile.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Guest, error) {
	guest, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyDefaults(&in)
	guest.Title = in.Title
	guest.FirstName = in.FirstName
	guest.LastName = in.LastName
	guest.Email = in.Email
	guest.Phone = in.Phone
	guest.IDType = in.IDType
	guest.IDNumber = in.IDNumber
	guest.Nationality = in.Nationality
	guest.Address = in.Address
	guest.DateOfBirth = in.DateOfBirth
	guest.VIP = in.VIP
	guest.Preferences = in.Preferences
	guest.Notes = in.Notes
	if err := s.repo.Update(ctx, *guest); err != nil {
		return nil, err
	}
	return guest, nil
}

// Delete removes a guest profile.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// RecordVisit bumps the guest's visit history. Check-in does this inside
// the booking transaction; this entry point covers stays recorded outside
// a booking.
func (s *Service) RecordVisit(ctx context.Context, id int64, at time.Time) error {
	return s.repo.RecordVisit(ctx, id, at)
}
