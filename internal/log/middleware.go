package log

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger.WithComponent(ComponentHTTP))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}

// WithRequestID stores a logger enriched with the request id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := FromContext(ctx).With(FieldRequestID, requestID)
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// probePaths are polled by orchestrators and logged at debug level only.
var probePaths = map[string]bool{"/healthz": true, "/readyz": true}

// LogHTTPEnd logs a finished request. 4xx responses log at warn and 5xx at
// error; successful health probes log at debug.
func LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	case probePaths[r.URL.Path]:
		level = slog.LevelDebug
	}

	fields := NewFields().
		WithComponent(ComponentHTTP).
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)

	FromContext(ctx).Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// remoteStatus is implemented by errors that carry the remote HTTP status.
type remoteStatus interface {
	RemoteStatus() int
}

// LogRemoteFailure logs a failed remote call once, at the boundary that
// turns it into a user-visible message.
func LogRemoteFailure(ctx context.Context, entity, op string, err error) {
	fields := NewFields().
		WithComponent(ComponentAPI).
		WithOperation(entity, op).
		WithError(err)
	var rs remoteStatus
	if errors.As(err, &rs) {
		fields.WithRemoteStatus(rs.RemoteStatus())
	}
	FromContext(ctx).Logger.ErrorContext(ctx, "Remote operation failed", fields.ToSlice()...)
}
