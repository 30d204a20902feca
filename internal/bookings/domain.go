// Package bookings manages reservations from creation through check-out.
package bookings

import "time"

// Status enumerates the reservation lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks how much of the booking has been settled.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether the payment status is known.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Booking is one reservation. BookingNumber is assigned once at creation and
// never changes afterwards.
type Booking struct {
	ID              int64
	BookingNumber   string
	GuestID         int64
	RoomID          int64
	CheckInDate     time.Time
	CheckOutDate    time.Time
	Nights          int
	Adults          int
	Children        int
	Status          Status
	PaymentStatus   PaymentStatus
	RoomRate        float64
	TotalAmount     float64
	PaidAmount      float64
	SpecialRequests string
	Source          string
	CheckedInAt     *time.Time
	CheckedOutAt    *time.Time
	CancelledAt     *time.Time
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListFilter narrows booking listings.
type ListFilter struct {
	Status  Status
	GuestID int64
	RoomID  int64
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}
