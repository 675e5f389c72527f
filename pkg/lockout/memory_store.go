package lockout

import (
	"context"
	"sync"
	"time"
)

// entry is a stored state plus the bookkeeping used by cleanup.
type entry struct {
	state      State
	lastAccess time.Time
}

// MemoryStore implements Store in process memory. Suitable for a single
// instance and for tests; state is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	retention       time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithRetention forgets accounts that have not been touched for d and are not
// currently locked. Zero keeps records until a successful login deletes them.
func WithRetention(d time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.retention = d
	}
}

// WithCleanupInterval sets how often stale records are swept.
// Only used together with WithRetention.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		entries:         make(map[string]*entry),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.retention > 0 && ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (State, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if e, ok := ms.entries[key]; ok {
		return e.state, nil
	}
	return State{}, nil
}

// Update holds the store lock for the whole read-modify-write.
func (ms *MemoryStore) Update(ctx context.Context, key string, fn func(*State) error) (State, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var st State
	if e, ok := ms.entries[key]; ok {
		st = e.state
	}

	if err := fn(&st); err != nil {
		return State{}, err
	}

	ms.entries[key] = &entry{state: st, lastAccess: time.Now()}
	return st, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale(time.Now())
		case <-ms.stopCleanup:
			return
		}
	}
}

func (ms *MemoryStore) removeStale(now time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for key, e := range ms.entries {
		if e.state.IsLocked(now) {
			continue
		}
		if now.Sub(e.lastAccess) > ms.retention {
			delete(ms.entries, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	select {
	case <-ms.stopCleanup:
	default:
		close(ms.stopCleanup)
	}
}
