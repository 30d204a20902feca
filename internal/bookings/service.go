package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tontan-resort/tontan-pms/internal/rooms"
	"github.com/tontan-resort/tontan-pms/internal/seqcode"
)

var (
	// ErrInvalidDates indicates the stay range is empty or reversed.
	ErrInvalidDates = errors.New("bookings: check-out must be after check-in")
	// ErrRoomUnavailable indicates the room cannot take the reservation.
	ErrRoomUnavailable = errors.New("bookings: room is not available")
	// ErrBadTransition indicates the requested status change is not allowed
	// from the booking's current status.
	ErrBadTransition = errors.New("bookings: status transition not allowed")
)

// RoomStore is the slice of the rooms module the booking lifecycle reads
// for validation. Writes happen through Repository effects so they share
// the booking's transaction.
type RoomStore interface {
	Get(ctx context.Context, id int64) (*rooms.Room, error)
}

// Service implements the reservation lifecycle.
type Service struct {
	repo  Repository
	rooms RoomStore
	codes *seqcode.Generator
	now   func() time.Time
}

// NewService constructs a Service. codes must be a generator for the booking
// number series.
func NewService(repo Repository, roomStore RoomStore, codes *seqcode.Generator) *Service {
	return &Service{repo: repo, rooms: roomStore, codes: codes, now: time.Now}
}

// List returns bookings matching the filter plus a total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Booking, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns a booking by its assigned number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	return s.repo.GetByNumber(ctx, number)
}

// Input carries the caller-supplied part of a reservation.
type Input struct {
	GuestID         int64
	RoomID          int64
	CheckInDate     time.Time
	CheckOutDate    time.Time
	Adults          int
	Children        int
	SpecialRequests string
	Source          string
}

// Create reserves a room. The stay length and total are derived from the
// dates and the room's current rate, the booking number is assigned from the
// monthly series, and the room moves to reserved.
func (s *Service) Create(ctx context.Context, in Input, createdBy int64) (*Booking, error) {
	nights := nightsBetween(in.CheckInDate, in.CheckOutDate)
	if nights <= 0 {
		return nil, ErrInvalidDates
	}
	room, err := s.rooms.Get(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive || (room.Status != rooms.StatusAvailable && room.Status != rooms.StatusCleaning) {
		return nil, fmt.Errorf("%w: room %d is %s", ErrRoomUnavailable, room.Number, room.Status)
	}
	adults := in.Adults
	if adults <= 0 {
		adults = 1
	}

	b := Booking{
		GuestID:         in.GuestID,
		RoomID:          in.RoomID,
		CheckInDate:     in.CheckInDate,
		CheckOutDate:    in.CheckOutDate,
		Nights:          nights,
		Adults:          adults,
		Children:        in.Children,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		RoomRate:        room.Price,
		TotalAmount:     room.Price * float64(nights),
		SpecialRequests: in.SpecialRequests,
		Source:          in.Source,
		CreatedBy:       createdBy,
	}
	number, err := s.codes.Assign(ctx, s.now(), func(ctx context.Context, code string) error {
		b.BookingNumber = code
		return s.repo.Create(ctx, &b)
	})
	if err != nil {
		return nil, err
	}
	b.BookingNumber = number
	return &b, nil
}

// Update edits the caller-supplied fields of a booking that has not started
// its stay. Dates recompute nights and the total; the booking number and
// status are untouched.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot edit a %s booking", ErrBadTransition, b.Status)
	}
	nights := nightsBetween(in.CheckInDate, in.CheckOutDate)
	if nights <= 0 {
		return nil, ErrInvalidDates
	}
	b.GuestID = in.GuestID
	b.CheckInDate = in.CheckInDate
	b.CheckOutDate = in.CheckOutDate
	b.Nights = nights
	b.TotalAmount = b.RoomRate * float64(nights)
	if in.Adults > 0 {
		b.Adults = in.Adults
	}
	b.Children = in.Children
	b.SpecialRequests = in.SpecialRequests
	b.Source = in.Source
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, StatusPending)
}

// CheckIn starts the stay. The room becomes occupied and the guest's visit
// history is updated in the same transaction as the status change.
func (s *Service) CheckIn(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusCheckedIn, StatusPending, StatusConfirmed)
}

// CheckOut ends the stay. The room goes into the cleaning queue.
func (s *Service) CheckOut(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusCheckedOut, StatusCheckedIn)
}

// Cancel voids a booking that has not started its stay and frees the room.
func (s *Service) Cancel(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusCancelled, StatusPending, StatusConfirmed)
}

// Delete removes a booking record. A booking that still holds a room
// releases it in the same transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	var releaseRoomID int64
	if b.Status == StatusPending || b.Status == StatusConfirmed {
		releaseRoomID = b.RoomID
	}
	return s.repo.Delete(ctx, id, releaseRoomID)
}

// RecordPayment adds a received amount and rolls the payment status forward.
func (s *Service) RecordPayment(ctx context.Context, id int64, amount float64) (*Booking, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("bookings: payment amount must be positive")
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.PaidAmount += amount
	if b.PaidAmount >= b.TotalAmount {
		b.PaymentStatus = PaymentPaid
	} else {
		b.PaymentStatus = PaymentPartial
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) transition(ctx context.Context, id int64, to Status, from ...Status) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range from {
		if b.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s to %s", ErrBadTransition, b.Status, to)
	}
	now := s.now()
	b.Status = to
	fx := Effects{RoomID: b.RoomID}
	switch to {
	case StatusCheckedIn:
		b.CheckedInAt = &now
		fx.RoomStatus = rooms.StatusOccupied
		fx.BumpVisit = true
		fx.GuestID = b.GuestID
		fx.VisitAt = now
	case StatusCheckedOut:
		b.CheckedOutAt = &now
		fx.RoomStatus = rooms.StatusCleaning
		fx.RoomCleaning = rooms.CleaningDirty
	case StatusCancelled:
		b.CancelledAt = &now
		fx.RoomStatus = rooms.StatusAvailable
	}
	if err := s.repo.Transition(ctx, b, fx); err != nil {
		return nil, err
	}
	return b, nil
}

// nightsBetween counts whole nights between two dates, ignoring the time of
// day on either side.
func nightsBetween(in, out time.Time) int {
	in = time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC)
	out = time.Date(out.Year(), out.Month(), out.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in) / (24 * time.Hour))
}
