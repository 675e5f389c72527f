// Package audit records security events such as sign-ins, failed attempts,
// lockouts and second factor changes.
//
// A Logger stamps each event with an ID, the time and request metadata
// (request ID, client IP, user agent) and passes it to a Storage. Storages
// ship for slog output, PostgreSQL and memory; wrap any of them in an
// AsyncWriter to batch writes off the request path.
//
//	writer := audit.NewAsyncWriter(audit.NewPostgresStorage(pool), audit.AsyncOptions{}, nil)
//	defer writer.Close(ctx)
//
//	auditLog := audit.NewLogger(writer,
//		audit.WithRequestIDExtractor(requestid.FromContext),
//		audit.WithIPExtractor(clientip.FromContext),
//	)
//	_ = auditLog.Failure(ctx, audit.ActionLoginFailed, account, audit.WithMetadata("attempts_left", 4))
//
// Audit failures are the caller's to log; they should never fail the
// operation being audited.
package audit
