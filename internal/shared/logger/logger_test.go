package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/payments/internal/shared/requestctx"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l := New(nil)
		assert.NotNil(t, l)
		assert.NotNil(t, l.Logger)
	})

	t.Run("json output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "debug", Format: "json", Output: buf})

		l.Info("charge attempted", "payment_id", "p-1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "charge attempted", entry["msg"])
		assert.Equal(t, "p-1", entry["payment_id"])
	})

	t.Run("text output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "text", Output: buf})

		l.Info("test message")
		assert.Contains(t, buf.String(), "test message")
		assert.False(t, strings.HasPrefix(buf.String(), "{"))
	})
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Level: "warn", Format: "json", Output: buf})

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_ForRequest(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Format: "json", Output: buf})

	ctx := requestctx.WithRequestID(context.Background(), "req-42")
	l.ForRequest(ctx).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])

	buf.Reset()
	l.ForRequest(context.Background()).Info("no id")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestContextWithLogger(t *testing.T) {
	l := New(&Config{Output: &bytes.Buffer{}})
	ctx := ContextWithLogger(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestNewZapLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	zl, err := NewZapLogger(&Config{Level: "info", Format: "json", Output: buf})
	require.NoError(t, err)

	zl.Debug("hidden")
	zl.Info("visible")
	require.NoError(t, zl.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}
