package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Run("creates JSON logger by default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")
		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("static attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("svc", "authd")))
		log.Info("hello")
		assert.Equal(t, "authd", decode(t, buf)["svc"])
	})

	t.Run("context values", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", ctxKey{}))
		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "hello")
		assert.Equal(t, "req-1", decode(t, buf)["request_id"])
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("prod", "authd"))
		log.Debug("dropped")
		log.Info("kept")
		entry := decode(t, buf)
		assert.Equal(t, "production", entry["env"])
		assert.Equal(t, "authd", entry["service"])
	})

	t.Run("development", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("", "authd"))
		log.Debug("visible")
		assert.Contains(t, buf.String(), "env=development")
		assert.Contains(t, buf.String(), "msg=visible")
	})
}

func TestWithFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}
