package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx := context.Background()
	l.Debug(ctx, "d", "k", "v")
	l.Info(ctx, "i")
	l.Warn(ctx, "w")
	l.Error(ctx, "e")

	out := buf.String()
	assert.Contains(t, out, `"msg":"d"`)
	assert.Contains(t, out, `"msg":"i"`)
	assert.Contains(t, out, `"msg":"w"`)
	assert.Contains(t, out, `"msg":"e"`)
}

func TestSlogLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	child := l.With("user_id", "u1")
	child.Info(context.Background(), "hello")

	assert.Contains(t, buf.String(), `"user_id":"u1"`)
}
