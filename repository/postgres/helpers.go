package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// uniqueViolation reports whether err is a Postgres unique violation on the
// named constraint. Matching is exact so an unrelated constraint whose name
// embeds the same column is never misclassified.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
