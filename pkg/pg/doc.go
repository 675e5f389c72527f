// Package pg opens the pgx connection pool used by the Postgres stores and
// applies their schema with goose.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// The migrations in the repository's migrations directory are compiled into
// the binary; set PG_MIGRATIONS_PATH to apply a directory from disk instead.
// IsNotFoundError and IsSerializationError classify driver errors for the
// stores; RetrySerialization reruns a transaction that lost a deadlock.
package pg
