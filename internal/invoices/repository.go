package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Repository persists invoices.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Invoice, int, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PgRepository is the Postgres implementation of Repository. Line items are
// stored as a jsonb column.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const invoiceColumns = `id, invoice_number, booking_id, guest_id, items, subtotal, discount,
	tax_rate, tax_amount, total, status, issue_date, due_date, payment_method, paid_at,
	notes, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.BookingID, &inv.GuestID, &inv.Items,
		&inv.Subtotal, &inv.Discount, &inv.TaxRate, &inv.TaxAmount, &inv.Total,
		&inv.Status, &inv.IssueDate, &inv.DueDate, &inv.PaymentMethod, &inv.PaidAt,
		&inv.Notes, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("invoices: scan invoice: %w", err)
	}
	return &inv, nil
}

// List returns invoices matching the filter, newest first, plus a total count.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	var (
		conds []string
		args  []any
	)
	argPos := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+argPos(filter.Status))
	}
	if filter.GuestID != 0 {
		conds = append(conds, "guest_id = "+argPos(filter.GuestID))
	}
	if filter.BookingID != 0 {
		conds = append(conds, "booking_id = "+argPos(filter.BookingID))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("invoices: count: %w", err)
	}

	p := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := "SELECT " + invoiceColumns + " FROM invoices" + where +
		" ORDER BY created_at DESC LIMIT " + argPos(p.PerPage) + " OFFSET " + argPos(p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoices: list: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

// Get returns an invoice by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = $1", id)
	return scanInvoice(row)
}

// GetByNumber returns an invoice by its assigned number.
func (r *PgRepository) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE invoice_number = $1", number)
	return scanInvoice(row)
}

// Create inserts the invoice. A unique-index rejection on invoice_number is
// reported as seqcode.ErrCodeTaken so the assignment loop can retry.
func (r *PgRepository) Create(ctx context.Context, inv *Invoice) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			invoice_number, booking_id, guest_id, items, subtotal, discount,
			tax_rate, tax_amount, total, status, issue_date, due_date, notes, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at, updated_at`,
		inv.InvoiceNumber, inv.BookingID, inv.GuestID, inv.Items, inv.Subtotal, inv.Discount,
		inv.TaxRate, inv.TaxAmount, inv.Total, inv.Status, inv.IssueDate, inv.DueDate,
		inv.Notes, inv.CreatedBy,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return fmt.Errorf("invoices: insert %s: %w", inv.InvoiceNumber, seqcode.ErrCodeTaken)
		}
		return fmt.Errorf("invoices: insert: %w", err)
	}
	return nil
}

// Update rewrites the invoice's mutable fields. The invoice number is never
// part of the update set.
func (r *PgRepository) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			items = $2, subtotal = $3, discount = $4, tax_rate = $5, tax_amount = $6,
			total = $7, status = $8, due_date = $9, payment_method = $10, paid_at = $11,
			notes = $12, updated_at = now()
		WHERE id = $1`,
		inv.ID, inv.Items, inv.Subtotal, inv.Discount, inv.TaxRate, inv.TaxAmount,
		inv.Total, inv.Status, inv.DueDate, inv.PaymentMethod, inv.PaidAt, inv.Notes,
	)
	if err != nil {
		return fmt.Errorf("invoices: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkOverdue flips sent invoices past their due date to overdue and returns
// how many changed.
func (r *PgRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = $1, updated_at = now()
		WHERE status = $2 AND due_date < $3`,
		StatusOverdue, StatusSent, asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("invoices: mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}
