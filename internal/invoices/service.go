package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tontan-resort/tontan-pms/internal/seqcode"
)

var (
	// ErrNoItems indicates the invoice has no billable lines.
	ErrNoItems = errors.New("invoices: at least one line item is required")
	// ErrBadTransition indicates the requested status change is not allowed
	// from the invoice's current status.
	ErrBadTransition = errors.New("invoices: status transition not allowed")
)

// DefaultDueDays is the payment window stamped on invoices created without
// an explicit due date.
const DefaultDueDays = 7

// Service implements invoice issuing and settlement.
type Service struct {
	repo  Repository
	codes *seqcode.Generator
	now   func() time.Time
}

// NewService constructs a Service. codes must be a generator for the invoice
// number series.
func NewService(repo Repository, codes *seqcode.Generator) *Service {
	return &Service{repo: repo, codes: codes, now: time.Now}
}

// List returns invoices matching the filter plus a total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns an invoice by id.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns an invoice by its assigned number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetByNumber(ctx, number)
}

// Input carries the caller-supplied part of an invoice. Monetary totals are
// never accepted from the caller.
type Input struct {
	BookingID int64
	GuestID   int64
	Items     []LineItem
	Discount  float64
	TaxRate   *float64
	DueDate   time.Time
	Notes     string
}

// Create issues a draft invoice. Line amounts, subtotal, tax and total are
// computed here; the invoice number comes from the monthly series.
func (s *Service) Create(ctx context.Context, in Input, createdBy int64) (*Invoice, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	now := s.now()
	taxRate := DefaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = now.AddDate(0, 0, DefaultDueDays)
	}
	inv := Invoice{
		BookingID: in.BookingID,
		GuestID:   in.GuestID,
		Items:     in.Items,
		Discount:  in.Discount,
		TaxRate:   taxRate,
		Status:    StatusDraft,
		IssueDate: now,
		DueDate:   dueDate,
		Notes:     in.Notes,
		CreatedBy: createdBy,
	}
	inv.computeTotals()

	number, err := s.codes.Assign(ctx, now, func(ctx context.Context, code string) error {
		inv.InvoiceNumber = code
		return s.repo.Create(ctx, &inv)
	})
	if err != nil {
		return nil, err
	}
	inv.InvoiceNumber = number
	return &inv, nil
}

// Update edits a draft invoice and recomputes its totals.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: cannot edit a %s invoice", ErrBadTransition, inv.Status)
	}
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	inv.Items = in.Items
	inv.Discount = in.Discount
	if in.TaxRate != nil {
		inv.TaxRate = *in.TaxRate
	}
	if !in.DueDate.IsZero() {
		inv.DueDate = in.DueDate
	}
	inv.Notes = in.Notes
	inv.computeTotals()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Send issues a draft invoice to the guest.
func (s *Service) Send(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusSent, StatusDraft)
}

// MarkPaid settles a sent or overdue invoice.
func (s *Service) MarkPaid(ctx context.Context, id int64, method string) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusSent && inv.Status != StatusOverdue {
		return nil, fmt.Errorf("%w: %s to %s", ErrBadTransition, inv.Status, StatusPaid)
	}
	now := s.now()
	inv.Status = StatusPaid
	inv.PaymentMethod = method
	inv.PaidAt = &now
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusCancelled, StatusDraft, StatusSent, StatusOverdue)
}

// SweepOverdue flips sent invoices past their due date to overdue. The
// background job runs this daily.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdue(ctx, s.now())
}

func (s *Service) transition(ctx context.Context, id int64, to Status, from ...Status) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range from {
		if inv.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s to %s", ErrBadTransition, inv.Status, to)
	}
	inv.Status = to
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}
