package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/requestid"
)

func serve(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		r.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return seen, rec
}

func TestMiddleware_ReusesValidID(t *testing.T) {
	t.Parallel()
	seen, rec := serve(t, "req_123-abc")
	assert.Equal(t, "req_123-abc", seen)
	assert.Equal(t, "req_123-abc", rec.Header().Get(requestid.Header))
}

func TestMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()
	for _, header := range []string{"", "bad id!", strings.Repeat("a", 129)} {
		seen, rec := serve(t, header)
		_, err := uuid.Parse(seen)
		require.NoError(t, err, "header %q", header)
		assert.Equal(t, seen, rec.Header().Get(requestid.Header))
	}
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()
	extract := requestid.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(requestid.WithContext(context.Background(), "abc"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())
}
