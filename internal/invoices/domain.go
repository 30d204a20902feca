// Package invoices issues and settles guest invoices.
package invoices

import (
	"math"
	"time"
)

// Status enumerates the invoice lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// DefaultTaxRate is the Thai VAT rate applied when no rate is given.
const DefaultTaxRate = 7.0

// LineItem is one billed line. Amount is always quantity times unit price,
// recomputed server-side. Taxable lines form the VAT base; untaxed lines
// (deposits, pass-through charges) still count toward the subtotal.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
	Taxable     bool    `json:"taxable"`
}

// Invoice is one bill. InvoiceNumber is assigned at creation and never
// changes; all monetary fields are derived from the line items.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	BookingID     int64
	GuestID       int64
	Items         []LineItem
	Subtotal      float64
	Discount      float64
	TaxRate       float64
	TaxAmount     float64
	Total         float64
	Status        Status
	IssueDate     time.Time
	DueDate       time.Time
	PaymentMethod string
	PaidAt        *time.Time
	Notes         string
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status    Status
	GuestID   int64
	BookingID int64
	Page      int
	PerPage   int
}

// roundBaht rounds to two decimal places, the satang granularity.
func roundBaht(v float64) float64 {
	return math.Round(v*100) / 100
}

// computeTotals derives the monetary fields from the line items, the
// discount and the tax rate. The tax base is the taxable portion of the
// subtotal after discount; the discount itself applies to the whole bill.
func (inv *Invoice) computeTotals() {
	inv.Subtotal = 0
	taxableBase := 0.0
	for i := range inv.Items {
		inv.Items[i].Amount = roundBaht(float64(inv.Items[i].Quantity) * inv.Items[i].UnitPrice)
		inv.Subtotal += inv.Items[i].Amount
		if inv.Items[i].Taxable {
			taxableBase += inv.Items[i].Amount
		}
	}
	inv.Subtotal = roundBaht(inv.Subtotal)
	taxableBase -= inv.Discount
	if taxableBase < 0 {
		taxableBase = 0
	}
	inv.TaxAmount = roundBaht(taxableBase * inv.TaxRate / 100)
	total := inv.Subtotal - inv.Discount + inv.TaxAmount
	if total < 0 {
		total = 0
	}
	inv.Total = roundBaht(total)
}
