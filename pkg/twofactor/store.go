package twofactor

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authguard/pkg/pg"
)

// Store persists one Record per account. Get returns ErrNotConfigured when no
// record exists.
type Store interface {
	Get(ctx context.Context, account string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, account string) error
}

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, account string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[account]
	if !ok {
		return Record{}, ErrNotConfigured
	}
	return rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.AccountID] = rec
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, account)
	return nil
}

// PostgresStore uses the twofa_settings table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, account string) (Record, error) {
	rec := Record{AccountID: account}
	err := s.pool.QueryRow(ctx, `
		SELECT enabled, sealed_secret, backup_email, updated_at
		FROM twofa_settings WHERE account_id = $1`, account).
		Scan(&rec.Enabled, &rec.SealedSecret, &rec.BackupEmail, &rec.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return Record{}, ErrNotConfigured
	}
	if err != nil {
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO twofa_settings (account_id, enabled, sealed_secret, backup_email, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			sealed_secret = EXCLUDED.sealed_secret,
			backup_email = EXCLUDED.backup_email,
			updated_at = EXCLUDED.updated_at`,
		rec.AccountID, rec.Enabled, rec.SealedSecret, rec.BackupEmail, rec.UpdatedAt)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, account string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM twofa_settings WHERE account_id = $1`, account); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
