// Package guests manages hotel guest profiles.
package guests

import "time"

// Address holds a guest's postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Guest is a hotel guest profile.
type Guest struct {
	ID          int64
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
	LastVisit   *time.Time
	VisitCount  int
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins title, first and last name for display.
func (g *Guest) FullName() string {
	if g.Title == "" {
		return g.FirstName + " " + g.LastName
	}
	return g.Title + " " + g.FirstName + " " + g.LastName
}

// ListFilter narrows guest listings.
type ListFilter struct {
	Search  string
	VIPOnly bool
	Page    int
	PerPage int
}
