// Package rooms manages the hotel room inventory.
package rooms

import "time"

// RoomType enumerates room classes.
type RoomType string

const (
	TypeDeluxe   RoomType = "Deluxe"
	TypeSuperior RoomType = "Superior"
	TypeSuite    RoomType = "Suite"
	TypeFamily   RoomType = "Family"
)

// Valid reports whether the room type is known.
func (t RoomType) Valid() bool {
	switch t {
	case TypeDeluxe, TypeSuperior, TypeSuite, TypeFamily:
		return true
	}
	return false
}

// Status enumerates occupancy states.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusReserved    Status = "reserved"
	StatusMaintenance Status = "maintenance"
	StatusCleaning    Status = "cleaning"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusMaintenance, StatusCleaning:
		return true
	}
	return false
}

// CleaningStatus enumerates housekeeping states.
type CleaningStatus string

const (
	CleaningClean      CleaningStatus = "clean"
	CleaningDirty      CleaningStatus = "dirty"
	CleaningInProgress CleaningStatus = "cleaning"
)

// Valid reports whether the cleaning status is known.
func (s CleaningStatus) Valid() bool {
	switch s {
	case CleaningClean, CleaningDirty, CleaningInProgress:
		return true
	}
	return false
}

// Room is one physical room.
type Room struct {
	ID             int64
	Number         int
	Floor          int
	Type           RoomType
	Price          float64
	Capacity       int
	Description    string
	Amenities      []string
	Status         Status
	CleaningStatus CleaningStatus
	LastCleaned    *time.Time
	Image          string
	Notes          string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ListFilter narrows room listings.
type ListFilter struct {
	Status     Status
	Type       RoomType
	Floor      int
	ActiveOnly bool
	Page       int
	PerPage    int
}

// DefaultAmenities is assigned to rooms created without an amenity list.
var DefaultAmenities = []string{"เครื่องปรับอากาศ", "Wi-Fi", "ตู้เย็น", "เครื่องทำน้ำอุ่น", "โทรทัศน์"}
