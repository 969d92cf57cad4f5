// Package logger wraps log/slog with the event helpers used across the
// service. Development environments get debug-level text output; every
// other environment logs JSON at info level.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

var requestIDKey contextKey

// Logger is a slog.Logger with domain helpers.
type Logger struct {
	*slog.Logger
}

func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ContextWithRequestID stores id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored on ctx, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithContext tags the logger with the request ID carried by ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestID(ctx); id != "" {
		return &Logger{l.With(slog.String("request_id", id))}
	}
	return l
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// QueryIssued logs the start of a parking lookup.
func (l *Logger) QueryIssued(seq uint64, lat, lng float64, forced bool) {
	l.Info("query_issued",
		slog.Uint64("seq", seq),
		slog.Float64("lat", lat),
		slog.Float64("lng", lng),
		slog.Bool("forced", forced),
	)
}

// QueryDiscarded logs a result that arrived after a newer query was issued.
func (l *Logger) QueryDiscarded(seq, latest uint64) {
	l.Debug("query_discarded",
		slog.Uint64("seq", seq),
		slog.Uint64("latest", latest),
	)
}

func (l *Logger) SensorFailure(code, message string) {
	l.Warn("sensor_failure",
		slog.String("code", code),
		slog.String("message", message),
	)
}

// LookupFallback logs a remote lookup that degraded to a fallback value.
func (l *Logger) LookupFallback(operation string, err error) {
	l.Warn("lookup_fallback",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// StreamOpened and StreamClosed bracket a long-lived client connection.
func (l *Logger) StreamOpened(transport, clientID string) {
	l.Debug("stream_opened", slog.String("transport", transport), slog.String("client", clientID))
}

func (l *Logger) StreamClosed(transport, clientID string) {
	l.Debug("stream_closed", slog.String("transport", transport), slog.String("client", clientID))
}
