// Package auth implements registration, login and token verification for
// staff accounts.
package auth

import (
	"time"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Department enumerates hotel departments a staff account belongs to.
type Department string

const (
	DepartmentFrontDesk    Department = "front_desk"
	DepartmentHousekeeping Department = "housekeeping"
	DepartmentRestaurant   Department = "restaurant"
	DepartmentMaintenance  Department = "maintenance"
	DepartmentAccounting   Department = "accounting"
	DepartmentWarehouse    Department = "warehouse"
	DepartmentManagement   Department = "management"
	DepartmentAdmin        Department = "admin"
)

// Valid reports whether the department is a known value.
func (d Department) Valid() bool {
	switch d {
	case DepartmentFrontDesk, DepartmentHousekeeping, DepartmentRestaurant,
		DepartmentMaintenance, DepartmentAccounting, DepartmentWarehouse,
		DepartmentManagement, DepartmentAdmin:
		return true
	}
	return false
}

// AccountStatus enumerates account lifecycle states.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// User is the account record used by authentication flows.
type User struct {
	ID           int64
	Name         string
	Email        string
	Username     string
	PasswordHash string
	Role         shared.Role
	Department   Department
	Position     string
	ProfileImage string
	PhoneNumber  string
	Status       AccountStatus
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
