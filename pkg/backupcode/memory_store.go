package backupcode

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in a map. Expiry is checked lazily by the Channel.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(ctx context.Context, account string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[account] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, account string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[account]
	return rec, ok, nil
}

func (s *MemoryStore) Consume(ctx context.Context, account string, fn func(Record) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[account]
	if !ok {
		return false, nil
	}
	if fn(rec) {
		delete(s.records, account)
	}
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, account)
	return nil
}
