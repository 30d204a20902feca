package rooms

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

// ErrDuplicateNumber indicates the room number is already in use.
var ErrDuplicateNumber = errors.New("rooms: room number already exists")

// Repository describes room persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Room, int, error)
	Get(ctx context.Context, id int64) (*Room, error)
	Create(ctx context.Context, room Room) (int64, error)
	Update(ctx context.Context, room Room) error
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status Status) error
	SetCleaning(ctx context.Context, id int64, status CleaningStatus, cleanedAt *time.Time) error
}

// PgRepository persists rooms in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const roomColumns = `id, number, floor, type, price, capacity, description, amenities,
status, cleaning_status, last_cleaned, image, notes, is_active, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var rm Room
	err := row.Scan(&rm.ID, &rm.Number, &rm.Floor, &rm.Type, &rm.Price, &rm.Capacity,
		&rm.Description, &rm.Amenities, &rm.Status, &rm.CleaningStatus, &rm.LastCleaned,
		&rm.Image, &rm.Notes, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// List returns rooms matching filter ordered by room number.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Room, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, filter.Type)
		argPos++
	}
	if filter.Floor > 0 {
		conditions = append(conditions, fmt.Sprintf("floor = $%d", argPos))
		args = append(args, filter.Floor)
		argPos++
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM rooms"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := fmt.Sprintf("SELECT %s FROM rooms%s ORDER BY number ASC LIMIT $%d OFFSET $%d",
		roomColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *rm)
	}
	return list, total, rows.Err()
}

// Get returns one room.
func (r *PgRepository) Get(ctx context.Context, id int64) (*Room, error) {
	return scanRoom(r.pool.QueryRow(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", id))
}

// Create inserts a room. A duplicate room number maps to ErrDuplicateNumber.
func (r *PgRepository) Create(ctx context.Context, rm Room) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO rooms (number, floor, type, price, capacity, description, amenities,
	status, cleaning_status, last_cleaned, image, notes, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
RETURNING id`,
		rm.Number, rm.Floor, rm.Type, rm.Price, rm.Capacity, rm.Description, rm.Amenities,
		rm.Status, rm.CleaningStatus, rm.LastCleaned, rm.Image, rm.Notes, rm.IsActive,
	).Scan(&id)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites room attributes.
func (r *PgRepository) Update(ctx context.Context, rm Room) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE rooms SET number=$2, floor=$3, type=$4, price=$5, capacity=$6, description=$7,
	amenities=$8, notes=$9, is_active=$10, image=$11, updated_at=NOW()
WHERE id = $1`,
		rm.ID, rm.Number, rm.Floor, rm.Type, rm.Price, rm.Capacity, rm.Description,
		rm.Amenities, rm.Notes, rm.IsActive, rm.Image)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a room.
func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetStatus changes the occupancy status.
func (r *PgRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE rooms SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetCleaning changes the housekeeping status.
func (r *PgRepository) SetCleaning(ctx context.Context, id int64, status CleaningStatus, cleanedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rooms SET cleaning_status = $2, last_cleaned = COALESCE($3, last_cleaned), updated_at = NOW() WHERE id = $1`,
		id, status, cleanedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
