// Package postgres implements the repository stores on PostgreSQL.
package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticketing-front/internal/devserver/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// NewStores returns stores sharing one pool. The schema must already exist.
func NewStores(pool *pgxpool.Pool) repository.Stores {
	return repository.Stores{
		Users:  NewUserRepository(pool),
		OTPs:   NewOTPRepository(pool),
		Offers: NewOfferRepository(pool),
		Orders: NewOrderRepository(pool),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// now matches the microsecond precision of timestamptz.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
