// Package users provides administrative management of staff accounts.
package users

import (
	"time"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// User represents a staff account for management purposes.
type User struct {
	ID           int64
	Name         string
	Email        string
	Username     string
	PasswordHash string
	Role         shared.Role
	Department   string
	Position     string
	ProfileImage string
	PhoneNumber  string
	Status       string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListFilter narrows user listings.
type ListFilter struct {
	Role       string
	Department string
	Status     string
	Page       int
	PerPage    int
}
