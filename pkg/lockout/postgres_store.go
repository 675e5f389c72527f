package lockout

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authguard/pkg/pg"
)

// PostgresStore keeps state in the login_attempts table created by the
// migrations directory. Update serializes writers with SELECT ... FOR UPDATE.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a store over pool. An empty table name falls back
// to login_attempts; the second-factor guard uses its own table so the two
// counters never collide.
func NewPostgresStore(pool *pgxpool.Pool, table string) *PostgresStore {
	if table == "" {
		table = "login_attempts"
	}
	return &PostgresStore{pool: pool, table: table}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (State, error) {
	st, err := scanState(s.pool.QueryRow(ctx,
		`SELECT attempts, locked_until, multiplier FROM `+s.ident()+` WHERE account_key = $1`, key))
	if pg.IsNotFoundError(err) {
		return State{}, nil
	}
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	return st, nil
}

// updateAttempts bounds reruns of a transaction that lost a deadlock.
const updateAttempts = 3

func (s *PostgresStore) Update(ctx context.Context, key string, fn func(*State) error) (State, error) {
	var st State
	err := pg.RetrySerialization(ctx, updateAttempts, func() error {
		var err error
		st, err = s.update(ctx, key, fn)
		return err
	})
	if err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *PostgresStore) update(ctx context.Context, key string, fn func(*State) error) (State, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Make sure a row exists so FOR UPDATE has something to lock on first failure
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+s.ident()+` (account_key) VALUES ($1) ON CONFLICT (account_key) DO NOTHING`, key); err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	st, err := scanState(tx.QueryRow(ctx,
		`SELECT attempts, locked_until, multiplier FROM `+s.ident()+` WHERE account_key = $1 FOR UPDATE`, key))
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	if err := fn(&st); err != nil {
		return State{}, err
	}

	var lockedUntil *time.Time
	if !st.LockedUntil.IsZero() {
		lockedUntil = &st.LockedUntil
	}
	if _, err := tx.Exec(ctx,
		`UPDATE `+s.ident()+` SET attempts = $2, locked_until = $3, multiplier = $4, updated_at = now() WHERE account_key = $1`,
		key, st.Attempts, lockedUntil, st.multiplier()); err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	return st, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.ident()+` WHERE account_key = $1`, key); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func scanState(row pgx.Row) (State, error) {
	var (
		st          State
		lockedUntil *time.Time
	)
	if err := row.Scan(&st.Attempts, &lockedUntil, &st.Multiplier); err != nil {
		return State{}, err
	}
	if lockedUntil != nil {
		st.LockedUntil = *lockedUntil
	}
	return st, nil
}
