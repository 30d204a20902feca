package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// ErrDuplicateAccount indicates the email or username is already registered.
var ErrDuplicateAccount = errors.New("auth: email or username already registered")

// Repository describes the persistence operations auth needs.
type Repository interface {
	FindByLogin(ctx context.Context, login string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user User) (int64, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateDetails(ctx context.Context, id int64, name, email, phone, position string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfileImage(ctx context.Context, id int64, image string) error
}

// PgRepository reads and writes the users table.
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

// FindByLogin resolves a user by username or email.
func (r *PgRepository) FindByLogin(ctx context.Context, login string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, login)
	return scanUser(row)
}

// FindByID resolves a user by primary key.
func (r *PgRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create inserts a new account. Duplicate email or username maps to
// ErrDuplicateAccount via the unique indexes.
func (r *PgRepository) Create(ctx context.Context, user User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (name, email, username, password_hash, role, department, position,
	profile_image, phone_number, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
RETURNING id`,
		user.Name, user.Email, user.Username, user.PasswordHash, user.Role,
		user.Department, user.Position, user.ProfileImage, user.PhoneNumber, user.Status,
	).Scan(&id)
	if err != nil {
		if seqcode.IsUniqueViolation(err) {
			return 0, ErrDuplicateAccount
		}
		return 0, err
	}
	return id, nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *PgRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`, id, at)
	return err
}

// UpdateDetails changes the self-service profile fields.
func (r *PgRepository) UpdateDetails(ctx context.Context, id int64, name, email, phone, position string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET name = $2, email = $3, phone_number = $4, position = $5, updated_at = NOW()
WHERE id = $1`, id, name, email, phone, position)
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

// UpdatePassword replaces the stored password hash.
func (r *PgRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateProfileImage replaces the stored profile image reference.
func (r *PgRepository) UpdateProfileImage(ctx context.Context, id int64, image string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET profile_image = $2, updated_at = NOW() WHERE id = $1`, id, image)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
