package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tontan-resort/tontan-pms/internal/platform/db"
	"github.com/tontan-resort/tontan-pms/internal/rooms"
	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Effects are the row updates outside the bookings table that must land
// atomically with a booking write: the room status change and the guest's
// visit history.
type Effects struct {
	RoomID       int64
	RoomStatus   rooms.Status         // empty leaves the room untouched
	RoomCleaning rooms.CleaningStatus // empty leaves housekeeping untouched
	BumpVisit    bool
	GuestID      int64
	VisitAt      time.Time
}

// Repository persists bookings. Create, Transition and Delete apply their
// side effects in the same transaction as the booking write.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Booking, int, error)
	Get(ctx context.Context, id int64) (*Booking, error)
	GetByNumber(ctx context.Context, number string) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	Transition(ctx context.Context, b *Booking, fx Effects) error
	Delete(ctx context.Context, id, releaseRoomID int64) error
}

// PgRepository is the Postgres implementation of Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const bookingColumns = `id, booking_number, guest_id, room_id, check_in_date, check_out_date,
	nights, adults, children, status, payment_status, room_rate, total_amount, paid_amount,
	special_requests, source, checked_in_at, checked_out_at, cancelled_at, created_by,
	created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.GuestID, &b.RoomID, &b.CheckInDate, &b.CheckOutDate,
		&b.Nights, &b.Adults, &b.Children, &b.Status, &b.PaymentStatus, &b.RoomRate,
		&b.TotalAmount, &b.PaidAmount, &b.SpecialRequests, &b.Source, &b.CheckedInAt,
		&b.CheckedOutAt, &b.CancelledAt, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("bookings: scan booking: %w", err)
	}
	return &b, nil
}

// List returns bookings matching the filter, newest first, plus a total count.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Booking, int, error) {
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
	if filter.RoomID != 0 {
		conds = append(conds, "room_id = "+argPos(filter.RoomID))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "check_in_date >= "+argPos(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "check_out_date <= "+argPos(filter.To))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bookings"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bookings: count: %w", err)
	}

	p := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := "SELECT " + bookingColumns + " FROM bookings" + where +
		" ORDER BY created_at DESC LIMIT " + argPos(p.PerPage) + " OFFSET " + argPos(p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

// Get returns a booking by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id)
	return scanBooking(row)
}

// GetByNumber returns a booking by its assigned number.
func (r *PgRepository) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE booking_number = $1", number)
	return scanBooking(row)
}

// Create inserts the booking and moves its room to reserved in one
// transaction. A unique-index rejection on booking_number is reported as
// seqcode.ErrCodeTaken so the caller's assignment loop can retry with a
// fresh number.
func (r *PgRepository) Create(ctx context.Context, b *Booking) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO bookings (
				booking_number, guest_id, room_id, check_in_date, check_out_date,
				nights, adults, children, status, payment_status, room_rate,
				total_amount, paid_amount, special_requests, source, created_by
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			RETURNING id, created_at, updated_at`,
			b.BookingNumber, b.GuestID, b.RoomID, b.CheckInDate, b.CheckOutDate,
			b.Nights, b.Adults, b.Children, b.Status, b.PaymentStatus, b.RoomRate,
			b.TotalAmount, b.PaidAmount, b.SpecialRequests, b.Source, b.CreatedBy,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			if seqcode.IsUniqueViolation(err) {
				return fmt.Errorf("bookings: insert %s: %w", b.BookingNumber, seqcode.ErrCodeTaken)
			}
			return fmt.Errorf("bookings: insert: %w", err)
		}
		return setRoomStatus(ctx, tx, b.RoomID, rooms.StatusReserved)
	})
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateBooking(ctx context.Context, q execer, b *Booking) error {
	tag, err := q.Exec(ctx, `
		UPDATE bookings SET
			guest_id = $2, room_id = $3, check_in_date = $4, check_out_date = $5,
			nights = $6, adults = $7, children = $8, status = $9, payment_status = $10,
			room_rate = $11, total_amount = $12, paid_amount = $13,
			special_requests = $14, source = $15,
			checked_in_at = $16, checked_out_at = $17, cancelled_at = $18,
			updated_at = now()
		WHERE id = $1`,
		b.ID, b.GuestID, b.RoomID, b.CheckInDate, b.CheckOutDate,
		b.Nights, b.Adults, b.Children, b.Status, b.PaymentStatus,
		b.RoomRate, b.TotalAmount, b.PaidAmount,
		b.SpecialRequests, b.Source,
		b.CheckedInAt, b.CheckedOutAt, b.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func setRoomStatus(ctx context.Context, q execer, roomID int64, status rooms.Status) error {
	tag, err := q.Exec(ctx,
		`UPDATE rooms SET status = $2, updated_at = now() WHERE id = $1`, roomID, status)
	if err != nil {
		return fmt.Errorf("bookings: move room %d to %s: %w", roomID, status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookings: move room %d to %s: %w", roomID, status, shared.ErrNotFound)
	}
	return nil
}

// Update rewrites the booking's mutable fields. The booking number is never
// part of the update set.
func (r *PgRepository) Update(ctx context.Context, b *Booking) error {
	return updateBooking(ctx, r.pool, b)
}

// Transition writes the booking's new status together with its room and
// guest side effects; either all rows change or none do.
func (r *PgRepository) Transition(ctx context.Context, b *Booking, fx Effects) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateBooking(ctx, tx, b); err != nil {
			return err
		}
		if fx.RoomStatus != "" {
			if err := setRoomStatus(ctx, tx, fx.RoomID, fx.RoomStatus); err != nil {
				return err
			}
		}
		if fx.RoomCleaning != "" {
			if _, err := tx.Exec(ctx,
				`UPDATE rooms SET cleaning_status = $2, updated_at = now() WHERE id = $1`,
				fx.RoomID, fx.RoomCleaning); err != nil {
				return fmt.Errorf("bookings: flag room %d as %s: %w", fx.RoomID, fx.RoomCleaning, err)
			}
		}
		if fx.BumpVisit {
			if _, err := tx.Exec(ctx,
				`UPDATE guests SET visit_count = visit_count + 1, last_visit = $2, updated_at = now() WHERE id = $1`,
				fx.GuestID, fx.VisitAt); err != nil {
				return fmt.Errorf("bookings: record visit for guest %d: %w", fx.GuestID, err)
			}
		}
		return nil
	})
}

// Delete removes a booking, releasing its room in the same transaction when
// releaseRoomID is set.
func (r *PgRepository) Delete(ctx context.Context, id, releaseRoomID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if releaseRoomID != 0 {
			if err := setRoomStatus(ctx, tx, releaseRoomID, rooms.StatusAvailable); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("bookings: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
