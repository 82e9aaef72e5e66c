package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/scheduling-api/internal/config"
	"github.com/jwalitptl/scheduling-api/internal/repository"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository
// can run against the pool or inside a transaction unchanged.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// NewDB opens a postgres connection pool.
func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Store is the transaction boundary for the booking flow.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn within one database transaction. The repositories handed to
// fn are bound to that transaction; any error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&bookingTx{q: tx}); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

type bookingTx struct {
	q *sqlx.Tx
}

func (t *bookingTx) Patients() repository.PatientRepository {
	return &patientRepository{q: t.q}
}

func (t *bookingTx) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{q: t.q}
}
