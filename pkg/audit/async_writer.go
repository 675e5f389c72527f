package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions controls batching. Zero values take the defaults.
type AsyncOptions struct {
	BufferSize     int           `env:"BUFFER_SIZE" envDefault:"1000"`
	BatchSize      int           `env:"BATCH_SIZE" envDefault:"100"`
	BatchTimeout   time.Duration `env:"BATCH_TIMEOUT" envDefault:"200ms"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`
}

// AsyncWriter queues events and flushes them in batches from a single
// goroutine so sign-in requests never wait on audit storage. When the buffer
// is full the event is written synchronously instead of dropped.
type AsyncWriter struct {
	storage Storage
	opts    AsyncOptions
	onError func(error)

	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewAsyncWriter starts the flush loop. onError receives failed flushes and
// may be nil.
func NewAsyncWriter(storage Storage, opts AsyncOptions, onError func(error)) *AsyncWriter {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 200 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	if onError == nil {
		onError = func(error) {}
	}

	w := &AsyncWriter{
		storage: storage,
		opts:    opts,
		onError: onError,
		queue:   make(chan Event, opts.BufferSize),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *AsyncWriter) StoreBatch(ctx context.Context, events []Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}

	for i, e := range events {
		select {
		case w.queue <- e:
		default:
			// Buffer full: write the rest inline rather than lose them
			return w.storage.StoreBatch(ctx, events[i:])
		}
	}
	return nil
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()

	batch := make([]Event, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Request contexts are long gone by now
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.StorageTimeout)
		defer cancel()
		if err := w.storage.StoreBatch(ctx, batch); err != nil {
			w.onError(err)
		}
		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-w.queue:
			batch = append(batch, e)
			if len(batch) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case e := <-w.queue:
					batch = append(batch, e)
					if len(batch) >= w.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close flushes queued events. ctx bounds how long to wait.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.done)
	})

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
