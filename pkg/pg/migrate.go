package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/authguard/migrations"
)

// Migrate applies the goose migrations from cfg.MigrationsPath, or the
// embedded set when the path is empty.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger) error {
	var fsys fs.FS = migrations.FS
	if cfg.MigrationsPath != "" {
		if _, err := os.Stat(cfg.MigrationsPath); err != nil {
			if os.IsNotExist(err) {
				return errors.Join(ErrMigrationsDirNotFound, err)
			}
			return errors.Join(ErrFailedToApplyMigrations, err)
		}
		fsys = os.DirFS(cfg.MigrationsPath)
	}

	// goose works on database/sql, so borrow connections from the pool
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", "error", err)
		}
	}(db)

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(newSlogAdapter(ctx, log))
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// migrateSlogAdapter routes goose's Printf-style output to the app logger.
type migrateSlogAdapter struct {
	ctx context.Context
	log logger
}

func newSlogAdapter(ctx context.Context, log logger) goose.Logger {
	return &migrateSlogAdapter{ctx: ctx, log: log}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(a.ctx, fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(a.ctx, fmt.Sprintf(format, v...))
}
