package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	restore := ReplaceLogger(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestGetRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "id123")
	assert.Equal(t, "id123", GetRequestID(ctx))

	assert.Empty(t, GetRequestID(context.Background()))

	wrongType := context.WithValue(context.Background(), requestIDKey, 42)
	assert.Empty(t, GetRequestID(wrongType))
}

func TestCtxInfo_InjectsRequestID(t *testing.T) {
	logs := observe(t, zap.DebugLevel)

	CtxInfo(WithRequestID(context.Background(), "req-1"), "schedule built", zap.Int("months", 360))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "schedule built", entry.Message)
	assert.Equal(t, zap.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.EqualValues(t, 360, fields["months"])
}

func TestCtxWarn_NoRequestID(t *testing.T) {
	logs := observe(t, zap.DebugLevel)

	CtxWarn(context.Background(), "cache unavailable")

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "request_id")
	assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
}

func TestCtxError_IncludesErrorAndTraceID(t *testing.T) {
	logs := observe(t, zap.DebugLevel)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	CtxError(ctx, "redis ping failed", errors.New("connection refused"))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "connection refused", fields["error"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zap.InfoLevel)

	Debug("debug should not show")
	Info("info should show")
	Error("error should show", errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "info should show", logs.All()[0].Message)
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zap.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("verbose"))
}

func TestInit_SetsGlobalLogger(t *testing.T) {
	prev := L()
	t.Cleanup(func() { ReplaceLogger(prev) })

	require.NoError(t, Init("debug"))
	assert.NotSame(t, prev, L())
	assert.True(t, L().Core().Enabled(zap.DebugLevel))
}
