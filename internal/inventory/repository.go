package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/unicode/norm"

	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// ErrDuplicateCode indicates the item code is already in use.
var ErrDuplicateCode = errors.New("inventory: item code already exists")

// ErrInsufficientStock indicates an issue would drive the stock negative.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// Repository persists inventory items.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Item, int, error)
	Get(ctx context.Context, id int64) (*Item, error)
	GetByCode(ctx context.Context, code string) (*Item, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id int64) error
	Adjust(ctx context.Context, id int64, delta int, restockedAt *time.Time) (*Item, error)
	LowStockItems(ctx context.Context) ([]Item, error)
}

// PgRepository is the Postgres implementation of Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const itemColumns = `id, code, name, category, unit, current_stock, min_stock, cost_price,
	selling_price, location, supplier, description, image, is_active, expiry_date,
	last_restocked, created_by, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.Code, &it.Name, &it.Category, &it.Unit, &it.CurrentStock, &it.MinStock,
		&it.CostPrice, &it.SellingPrice, &it.Location, &it.Supplier, &it.Description,
		&it.Image, &it.IsActive, &it.ExpiryDate, &it.LastRestocked, &it.CreatedBy,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("inventory: scan item: %w", err)
	}
	return &it, nil
}

// List returns items matching the filter, ordered by code, plus a total count.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	var (
		conds []string
		args  []any
	)
	argPos := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+argPos(filter.Category))
	}
	if filter.Search != "" {
		// Thai IMEs can emit combining marks in either order; normalise the
		// needle so it matches the NFC form stored in the table.
		needle := "%" + norm.NFC.String(filter.Search) + "%"
		pos := argPos(needle)
		conds = append(conds, "(name ILIKE "+pos+" OR code ILIKE "+pos+")")
	}
	if filter.LowOnly {
		conds = append(conds, "current_stock <= min_stock")
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM inventory_items"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("inventory: count: %w", err)
	}

	p := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := "SELECT " + itemColumns + " FROM inventory_items" + where +
		" ORDER BY code LIMIT " + argPos(p.PerPage) + " OFFSET " + argPos(p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("inventory: list: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *it)
	}
	return out, total, rows.Err()
}

// Get returns an item by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM inventory_items WHERE id = $1", id)
	return scanItem(row)
}

// GetByCode returns an item by its code.
func (r *PgRepository) GetByCode(ctx context.Context, code string) (*Item, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM inventory_items WHERE code = $1", code)
	return scanItem(row)
}

// Create inserts an item. A duplicate code maps to ErrDuplicateCode.
func (r *PgRepository) Create(ctx context.Context, it *Item) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (
			code, name, category, unit, current_stock, min_stock, cost_price,
			selling_price, location, supplier, description, image, is_active,
			expiry_date, last_restocked, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at, updated_at`,
		it.Code, norm.NFC.String(it.Name), it.Category, it.Unit, it.CurrentStock, it.MinStock,
		it.CostPrice, it.SellingPrice, it.Location, it.Supplier, it.Description, it.Image,
		it.IsActive, it.ExpiryDate, it.LastRestocked, it.CreatedBy,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("inventory: insert: %w", err)
	}
	return nil
}

// Update rewrites an item's descriptive fields. Stock levels change only
// through Adjust.
func (r *PgRepository) Update(ctx context.Context, it *Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE inventory_items SET
			name = $2, category = $3, unit = $4, min_stock = $5, cost_price = $6,
			selling_price = $7, location = $8, supplier = $9, description = $10,
			image = $11, is_active = $12, expiry_date = $13, updated_at = now()
		WHERE id = $1`,
		it.ID, norm.NFC.String(it.Name), it.Category, it.Unit, it.MinStock, it.CostPrice,
		it.SellingPrice, it.Location, it.Supplier, it.Description, it.Image, it.IsActive,
		it.ExpiryDate,
	)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("inventory: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an item.
func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("inventory: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Adjust applies a stock delta atomically. The guarded UPDATE never lets the
// stock go negative; a rejected issue maps to ErrInsufficientStock.
func (r *PgRepository) Adjust(ctx context.Context, id int64, delta int, restockedAt *time.Time) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_items SET
			current_stock = current_stock + $2,
			last_restocked = COALESCE($3, last_restocked),
			updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= 0
		RETURNING `+itemColumns,
		id, delta, restockedAt,
	)
	it, err := scanItem(row)
	if err == nil {
		return it, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	// Distinguish a missing row from a rejected issue.
	if _, gerr := r.Get(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrInsufficientStock
}

// LowStockItems returns active items at or below their reorder threshold.
func (r *PgRepository) LowStockItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+itemColumns+" FROM inventory_items WHERE is_active AND current_stock <= min_stock ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("inventory: low stock: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}
