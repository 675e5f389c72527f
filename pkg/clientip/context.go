package clientip

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authguard/pkg/logger"
)

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// LoggerExtractor adds remote_ip to every record logged with a request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return logger.RemoteIP(ip), true
		}
		return slog.Attr{}, false
	}
}
