package credential

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authguard/pkg/pg"
)

// Store loads and replaces the credential of an account.
type Store interface {
	GetCredential(ctx context.Context, account string) (StoredCredential, error)
	SaveCredential(ctx context.Context, account string, cred StoredCredential) error
}

// MemoryStore keeps encoded credentials in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]string)}
}

// Set stores an already encoded credential, as read from configuration.
func (s *MemoryStore) Set(account, encoded string) error {
	if _, err := Parse(encoded); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[account] = encoded
	return nil
}

func (s *MemoryStore) GetCredential(ctx context.Context, account string) (StoredCredential, error) {
	s.mu.RLock()
	encoded, ok := s.creds[account]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Parse(encoded)
}

func (s *MemoryStore) SaveCredential(ctx context.Context, account string, cred StoredCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[account] = cred.String()
	return nil
}

// PostgresStore reads the credentials table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetCredential(ctx context.Context, account string) (StoredCredential, error) {
	var encoded string
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM credentials WHERE account_id = $1`, account).Scan(&encoded)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return Parse(encoded)
}

func (s *PostgresStore) SaveCredential(ctx context.Context, account string, cred StoredCredential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (account_id, password_hash, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (account_id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()`,
		account, cred.String())
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
