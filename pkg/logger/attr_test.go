package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("lockout", slog.Int("attempts", 5), slog.Int("multiplier", 2))
	require.Equal(t, "lockout", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "attempts", g[0].Key)
	assert.Equal(t, "multiplier", g[1].Key)
}

func TestErrors(t *testing.T) {
	attr := logger.Errors(errors.New("first"), nil, errors.New("second"))
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "0", g[0].Key)
	assert.Equal(t, "2", g[1].Key)

	assert.Equal(t, slog.Attr{}, logger.Errors(nil, nil))
}

func TestEmptyAttrs(t *testing.T) {
	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, slog.Attr{}, logger.AccountID(""))
	assert.Equal(t, slog.Attr{}, logger.RequestID(""))
	assert.Equal(t, slog.Attr{}, logger.RemoteIP(""))
}

func TestDomainAttrs(t *testing.T) {
	assert.Equal(t, "account_id", logger.AccountID("admin").Key)
	assert.Equal(t, "admin", logger.AccountID("admin").Value.String())
	assert.Equal(t, "backup", logger.Method("backup").Value.String())
	assert.Equal(t, "component", logger.Component("lockout").Key)
	assert.Equal(t, 15*time.Minute, logger.LockedFor(15*time.Minute).Value.Duration())
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
}
