package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// ErrDuplicateAccount indicates the email or username is already taken.
var ErrDuplicateAccount = errors.New("users: email or username already registered")

// Repository describes user persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user User) (int64, error)
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, id int64) error
}

// PgRepository persists users in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const userColumns = `id, name, email, username, password_hash, role, department, position,
profile_image, phone_number, status, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.Department, &u.Position, &u.ProfileImage, &u.PhoneNumber, &u.Status,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users matching filter plus the unfiltered-page total.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	add := func(clause, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, fmt.Sprintf(clause, argPos))
		args = append(args, value)
		argPos++
	}
	add("role = $%d", filter.Role)
	add("department = $%d", filter.Department)
	add("status = $%d", filter.Status)

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := fmt.Sprintf("SELECT %s FROM users%s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		userColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *u)
	}
	return list, total, rows.Err()
}

// Get returns one user by ID.
func (r *PgRepository) Get(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// Create inserts a user.
func (r *PgRepository) Create(ctx context.Context, user User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (name, email, username, password_hash, role, department, position,
	profile_image, phone_number, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
RETURNING id`,
		user.Name, user.Email, user.Username, user.PasswordHash, user.Role, user.Department,
		user.Position, user.ProfileImage, user.PhoneNumber, user.Status,
	).Scan(&id)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return 0, ErrDuplicateAccount
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites the mutable account fields.
func (r *PgRepository) Update(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET name=$2, email=$3, role=$4, department=$5, position=$6,
	phone_number=$7, status=$8, updated_at=NOW()
WHERE id = $1`,
		user.ID, user.Name, user.Email, user.Role, user.Department, user.Position,
		user.PhoneNumber, user.Status)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return ErrDuplicateAccount
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user.
func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
