package rooms

import (
	"context"
	"fmt"
	"time"
)

// Service wraps room management rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns rooms matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Room, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one room.
func (s *Service) Get(ctx context.Context, id int64) (*Room, error) {
	return s.repo.Get(ctx, id)
}

// Input carries room attributes.
type Input struct {
	Number      int
	Floor       int
	Type        RoomType
	Price       float64
	Capacity    int
	Description string
	Amenities   []string
	Notes       string
	IsActive    *bool
}

// Create adds a room to the inventory.
func (s *Service) Create(ctx context.Context, in Input) (*Room, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("rooms: unknown room type %q", in.Type)
	}
	if in.Capacity <= 0 {
		in.Capacity = 2
	}
	amenities := in.Amenities
	if len(amenities) == 0 {
		amenities = DefaultAmenities
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now()
	room := Room{
		Number:         in.Number,
		Floor:          in.Floor,
		Type:           in.Type,
		Price:          in.Price,
		Capacity:       in.Capacity,
		Description:    in.Description,
		Amenities:      amenities,
		Status:         StatusAvailable,
		CleaningStatus: CleaningClean,
		LastCleaned:    &now,
		Image:          "default-room.jpg",
		Notes:          in.Notes,
		IsActive:       active,
	}
	id, err := s.repo.Create(ctx, room)
	if err != nil {
		return nil, err
	}
	room.ID = id
	return &room, nil
}

// Update edits room attributes. Occupancy and housekeeping states are
// changed through SetStatus and SetCleaning, not here.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Room, error) {
	room, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("rooms: unknown room type %q", in.Type)
	}
	room.Number = in.Number
	room.Floor = in.Floor
	room.Type = in.Type
	room.Price = in.Price
	if in.Capacity > 0 {
		room.Capacity = in.Capacity
	}
	room.Description = in.Description
	if len(in.Amenities) > 0 {
		room.Amenities = in.Amenities
	}
	room.Notes = in.Notes
	if in.IsActive != nil {
		room.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, *room); err != nil {
		return nil, err
	}
	return room, nil
}

// Delete removes a room.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SetImage swaps the room photo and returns the previous reference so the
// caller can clean it up.
func (s *Service) SetImage(ctx context.Context, id int64, image string) (string, error) {
	room, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	previous := room.Image
	room.Image = image
	if err := s.repo.Update(ctx, *room); err != nil {
		return "", err
	}
	return previous, nil
}

// SetStatus changes the occupancy status.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("rooms: unknown status %q", status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

// SetCleaning changes the housekeeping status. Marking a room clean stamps
// last_cleaned.
func (s *Service) SetCleaning(ctx context.Context, id int64, status CleaningStatus) error {
	if !status.Valid() {
		return fmt.Errorf("rooms: unknown cleaning status %q", status)
	}
	var cleanedAt *time.Time
	if status == CleaningClean {
		now := time.Now()
		cleanedAt = &now
	}
	return s.repo.SetCleaning(ctx, id, status, cleanedAt)
}
