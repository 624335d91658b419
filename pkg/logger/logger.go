package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance
var log = zerolog.Nop()

// ContextKey for storing logger in context
type ctxKey struct{}

// Init initializes the global logger
func Init(env string, logLevel string) {
	Configure(env, logLevel, os.Stderr)
}

// Configure is Init with an explicit sink. The widget CLI keeps stdout for
// rendered results, so logs go elsewhere.
func Configure(env string, logLevel string, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = out

	// Pretty console output for development
	if env == "development" || env == "dev" || env == "" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	var level zerolog.Level
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log
}

// WithContext returns a logger with context
func WithContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithRequestID adds a request ID to the logger
func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}

// WithDispatch tags a logger with the search dispatch sequence and query.
func WithDispatch(l *zerolog.Logger, seq uint64, query string) zerolog.Logger {
	return l.With().Uint64("dispatch", seq).Str("query", query).Logger()
}

// --- Structured Logging Helpers ---

// HTTPRequest logs an inbound HTTP request
func HTTPRequest(l *zerolog.Logger, method, path string, statusCode int, duration time.Duration) {
	event := l.Info()
	if statusCode >= 500 {
		event = l.Error()
	} else if statusCode >= 400 {
		event = l.Warn()
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration_ms", duration).
		Msg("HTTP")
}

// StorefrontCall logs an outbound storefront API call
func StorefrontCall(l *zerolog.Logger, method, path string, statusCode int, duration time.Duration, err error) {
	event := l.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration_ms", duration)

	if err != nil {
		event.Err(err).Msg("Storefront call failed")
	} else {
		event.Msg("Storefront call")
	}
}

// ServiceStart logs service startup
func ServiceStart(name, addr string) {
	log.Info().
		Str("service", name).
		Str("addr", addr).
		Msg("Service Started")
}

// ServiceStop logs service shutdown
func ServiceStop(name string) {
	log.Info().
		Str("service", name).
		Msg("Service Stopped")
}
