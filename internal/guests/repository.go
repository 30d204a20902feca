package guests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/unicode/norm"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Repository describes guest persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Guest, int, error)
	Get(ctx context.Context, id int64) (*Guest, error)
	Create(ctx context.Context, guest Guest) (int64, error)
	Update(ctx context.Context, guest Guest) error
	Delete(ctx context.Context, id int64) error
	RecordVisit(ctx context.Context, id int64, at time.Time) error
}

// PgRepository persists guests in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const guestColumns = `id, title, first_name, last_name, email, phone, id_type, id_number,
nationality, street, city, state, postal_code, country, date_of_birth, vip, preferences,
notes, last_visit, visit_count, created_by, created_at, updated_at`

func scanGuest(row pgx.Row) (*Guest, error) {
	var g Guest
	err := row.Scan(&g.ID, &g.Title, &g.FirstName, &g.LastName, &g.Email, &g.Phone,
		&g.IDType, &g.IDNumber, &g.Nationality, &g.Address.Street, &g.Address.City,
		&g.Address.State, &g.Address.PostalCode, &g.Address.Country, &g.DateOfBirth,
		&g.VIP, &g.Preferences, &g.Notes, &g.LastVisit, &g.VisitCount, &g.CreatedBy,
		&g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns guests matching filter. Search input is NFC-normalised before
// matching; Thai IME input often arrives with combining marks that would
// otherwise miss stored composed forms.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Guest, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filter.Search != "" {
		needle := "%" + norm.NFC.String(strings.TrimSpace(filter.Search)) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)",
			argPos, argPos, argPos, argPos))
		args = append(args, needle)
		argPos++
	}
	if filter.VIPOnly {
		conditions = append(conditions, "vip = TRUE")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM guests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := fmt.Sprintf("SELECT %s FROM guests%s ORDER BY first_name, last_name LIMIT $%d OFFSET $%d",
		guestColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *g)
	}
	return list, total, rows.Err()
}

// Get returns one guest.
func (r *PgRepository) Get(ctx context.Context, id int64) (*Guest, error) {
	return scanGuest(r.pool.QueryRow(ctx, "SELECT "+guestColumns+" FROM guests WHERE id = $1", id))
}

// Create inserts a guest. Names are stored NFC-normalised.
func (r *PgRepository) Create(ctx context.Context, g Guest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO guests (title, first_name, last_name, email, phone, id_type, id_number,
	nationality, street, city, state, postal_code, country, date_of_birth, vip,
	preferences, notes, visit_count, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,0,$18,NOW(),NOW())
RETURNING id`,
		g.Title, norm.NFC.String(g.FirstName), norm.NFC.String(g.LastName), g.Email, g.Phone,
		g.IDType, g.IDNumber, g.Nationality, g.Address.Street, g.Address.City, g.Address.State,
		g.Address.PostalCode, g.Address.Country, g.DateOfBirth, g.VIP, g.Preferences,
		g.Notes, g.CreatedBy,
	).Scan(&id)
	return id, err
}

// Update rewrites a guest profile. Visit counters are managed separately.
func (r *PgRepository) Update(ctx context.Context, g Guest) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE guests SET title=$2, first_name=$3, last_name=$4, email=$5, phone=$6, id_type=$7,
	id_number=$8, nationality=$9, street=$10, city=$11, state=$12, postal_code=$13,
	country=$14, date_of_birth=$15, vip=$16, preferences=$17, notes=$18, updated_at=NOW()
WHERE id = $1`,
		g.ID, g.Title, norm.NFC.String(g.FirstName), norm.NFC.String(g.LastName), g.Email,
		g.Phone, g.IDType, g.IDNumber, g.Nationality, g.Address.Street, g.Address.City,
		g.Address.State, g.Address.PostalCode, g.Address.Country, g.DateOfBirth, g.VIP,
		g.Preferences, g.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a guest.
func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecordVisit bumps the visit counter and stamps the latest stay.
func (r *PgRepository) RecordVisit(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE guests SET visit_count = visit_count + 1, last_visit = $2, updated_at = NOW() WHERE id = $1`,
		id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
