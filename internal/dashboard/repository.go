package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository computes the summary with aggregate queries against the
// primary store.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Snapshot computes the overview for the given day.
func (r *PgRepository) Snapshot(ctx context.Context, day time.Time) (*Summary, error) {
	summary := Summary{Date: day.Format("2006-01-02")}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'occupied'),
			COUNT(*) FILTER (WHERE status = 'reserved'),
			COUNT(*) FILTER (WHERE status = 'maintenance'),
			COUNT(*) FILTER (WHERE status = 'cleaning')
		FROM rooms WHERE is_active`,
	).Scan(
		&summary.Rooms.Total, &summary.Rooms.Available, &summary.Rooms.Occupied,
		&summary.Rooms.Reserved, &summary.Rooms.Maintenance, &summary.Rooms.Cleaning,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard: room counts: %w", err)
	}
	if summary.Rooms.Total > 0 {
		summary.Rooms.OccupancyRate = float64(summary.Rooms.Occupied) / float64(summary.Rooms.Total)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE check_in_date >= $1 AND check_in_date < $2
				AND status IN ('pending','confirmed')),
			COUNT(*) FILTER (WHERE check_out_date >= $1 AND check_out_date < $2
				AND status = 'checked-in'),
			COUNT(*) FILTER (WHERE status = 'checked-in')
		FROM bookings`,
		dayStart, dayEnd,
	).Scan(&summary.ArrivalsToday, &summary.DeparturesToday, &summary.InHouse)
	if err != nil {
		return nil, fmt.Errorf("dashboard: booking counts: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('sent','overdue')),
			COALESCE(SUM(total) FILTER (WHERE status IN ('sent','overdue')), 0),
			COUNT(*) FILTER (WHERE status = 'overdue')
		FROM invoices`,
	).Scan(&summary.Invoices.OpenCount, &summary.Invoices.OpenAmount, &summary.Invoices.OverdueCount)
	if err != nil {
		return nil, fmt.Errorf("dashboard: invoice counts: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_items WHERE is_active AND current_stock <= min_stock`,
	).Scan(&summary.LowStockItems)
	if err != nil {
		return nil, fmt.Errorf("dashboard: low stock count: %w", err)
	}

	return &summary, nil
}
