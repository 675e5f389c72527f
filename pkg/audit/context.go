package audit

import (
	"context"
	"net/http"
)

// Extractor pulls request metadata out of the context.
type Extractor func(context.Context) string

type userAgentKey struct{}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func UserAgentFromContext(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey{}).(string)
	return ua
}

// Middleware stores the User-Agent header for events recorded while serving
// the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.UserAgent(); ua != "" {
			r = r.WithContext(WithUserAgent(r.Context(), ua))
		}
		next.ServeHTTP(w, r)
	})
}
