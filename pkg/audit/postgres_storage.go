package audit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the storage needs.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertEvent = `INSERT INTO audit_events
	(id, account_id, action, result, error, request_id, ip, user_agent, metadata, created_at)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10)`

// PostgresStorage appends events to the audit_events table.
type PostgresStorage struct {
	db DB
}

func NewPostgresStorage(db DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	if len(events) == 1 {
		e := events[0]
		_, err := s.db.Exec(ctx, insertEvent, eventArgs(e)...)
		if err != nil {
			return errors.Join(ErrStorageUnavailable, err)
		}
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertEvent, eventArgs(e)...)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func eventArgs(e Event) []any {
	var meta map[string]any
	if len(e.Metadata) > 0 {
		meta = e.Metadata
	}
	return []any{
		e.ID, e.AccountID, string(e.Action), string(e.Result),
		e.Error, e.RequestID, e.IP, e.UserAgent, meta, e.CreatedAt,
	}
}
