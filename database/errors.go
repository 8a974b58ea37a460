package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsRetryableWrite reports whether a failed write is worth another attempt.
// Constraint violations and data errors fail identically every time; only
// connection-level, rollback and resource failures can recover on retry.
func IsRetryableWrite(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidData) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		// 08 connection exception, 40 transaction rollback,
		// 53 insufficient resources, 57 operator intervention
		case "08", "40", "53", "57":
			return true
		}
		return false
	}

	// Driver-level failures (dial errors, timeouts) carry no SQLSTATE
	return true
}
