package logger

import (
	"context"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const requestIDKey contextKey = "request_id"

var current atomic.Pointer[zap.Logger]

func init() {
	l, err := build(zapcore.InfoLevel)
	if err != nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

// Init replaces the global logger with a JSON logger at the given level.
func Init(level string) error {
	l, err := build(ParseLevel(level))
	if err != nil {
		return err
	}
	current.Store(l)
	return nil
}

// ReplaceLogger swaps the global logger and returns a func restoring the
// previous one.
func ReplaceLogger(l *zap.Logger) func() {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

// L returns the global logger.
func L() *zap.Logger {
	return current.Load()
}

func Sync() error {
	return L().Sync()
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func build(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "json"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "log_level"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.StacktraceKey = ""
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stdout"}

	return config.Build(zap.AddCallerSkip(1))
}

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func contextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	return fields
}

// CONTEXT-AWARE LOGGING //

func CtxInfo(ctx context.Context, msg string, fields ...zap.Field) {
	L().Info(msg, contextFields(ctx, fields)...)
}

func CtxDebug(ctx context.Context, msg string, fields ...zap.Field) {
	L().Debug(msg, contextFields(ctx, fields)...)
}

func CtxWarn(ctx context.Context, msg string, fields ...zap.Field) {
	L().Warn(msg, contextFields(ctx, fields)...)
}

func CtxError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	L().Error(msg, contextFields(ctx, fields)...)
}

// NON-CONTEXT LOGGING //

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	L().Error(msg, fields...)
}
