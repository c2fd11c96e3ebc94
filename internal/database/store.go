package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store wraps the database handle with the query methods the services
// and handlers use. All single-row state mutations (verdict application,
// balance changes, pin usage) happen inside one statement or one
// transaction here, which is what makes the service-level idempotency
// guards hold.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and shutdown.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
