package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authguard/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remoteAddr: "203.0.113.7:5555", want: "203.0.113.7"},
		{name: "remote addr without port", remoteAddr: "203.0.113.7", want: "203.0.113.7"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "mapped ipv4", remoteAddr: "[::ffff:198.51.100.4]:80", want: "198.51.100.4"},
		{name: "garbage", remoteAddr: "not-an-ip", want: ""},
		{
			name:       "headers ignored without trust",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9"},
			want:       "10.0.0.1",
		},
		{
			name:       "first valid forwarded entry",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "bogus, 198.51.100.9, 10.0.0.2"},
			trustProxy: true,
			want:       "198.51.100.9",
		},
		{
			name:       "cloudflare header wins",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"CF-Connecting-IP": "192.0.2.10",
				"X-Forwarded-For":  "198.51.100.9",
			},
			trustProxy: true,
			want:       "192.0.2.10",
		},
		{
			name:       "invalid headers fall back to remote addr",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "999.1.1.1"},
			trustProxy: true,
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r, tt.trustProxy))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "192.0.2.1:9000"
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "192.0.2.1", got)
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()
	extract := clientip.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(clientip.WithContext(context.Background(), "192.0.2.1"))
	assert.True(t, ok)
	assert.Equal(t, "192.0.2.1", attr.Value.String())
}
