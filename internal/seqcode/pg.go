package seqcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgLastCode builds a LastCodeFunc over a code column. table and column are
// trusted identifiers supplied by the owning repository, never user input.
// Prefix matching rides the UNIQUE btree index on the column.
func PgLastCode(pool *pgxpool.Pool, table, column string) LastCodeFunc {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s LIKE $1 || '%%' ORDER BY %s DESC LIMIT 1`,
		column, table, column, column,
	)
	return func(ctx context.Context, pattern string) (string, bool, error) {
		var code string
		err := pool.QueryRow(ctx, query, pattern).Scan(&code)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return code, true, nil
	}
}

// IsUniqueViolation reports whether err is a postgres unique-index rejection
// (SQLSTATE 23505). Repositories map it to ErrCodeTaken so Assign can retry.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
