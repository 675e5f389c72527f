// Package logger builds log/slog loggers the same way across every authguard
// package and binary.
//
// New takes functional options for level, format, output and static
// attributes. WithEnvironment picks text/debug for development and JSON/info
// for staging and production. WithContextValue injects request-scoped values
// such as the request ID into every record.
//
// attr.go holds constructors for the attribute keys the authentication code
// logs with (account_id, method, component, locked_for, error), so log queries
// stay consistent.
//
//	log := logger.New(logger.WithEnvironment("production", "authd"))
//	log.WarnContext(ctx, "account locked",
//	    logger.Component("lockout"),
//	    logger.AccountID("admin"),
//	    logger.LockedFor(15*time.Minute),
//	)
package logger
