package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger configures the global zerolog logger. Development logs are
// human readable; every other environment writes one JSON object per line.
// An empty level means debug in development and info elsewhere.
func InitLogger(serviceName, env, level string) {
	initLogger(os.Stdout, serviceName, env, level)
}

func initLogger(out io.Writer, serviceName, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	development := env == "development"

	if development {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(out).With().Timestamp().Str("service", serviceName)
	if !development {
		ctx = ctx.Caller().Str("env", env)
	}
	log.Logger = ctx.Logger()

	parsed, err := parseLevel(level, development)
	zerolog.SetGlobalLevel(parsed)
	if err != nil {
		log.Warn().Err(err).Str("level", level).Msg("Unknown log level, using default")
	}
}

func parseLevel(level string, development bool) (zerolog.Level, error) {
	fallback := zerolog.InfoLevel
	if development {
		fallback = zerolog.DebugLevel
	}
	if level == "" {
		return fallback, nil
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return fallback, err
	}
	return parsed, nil
}

// LoggerFromContext returns the request logger stored in ctx, or the global
// logger, with trace context
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.Logger
	if scoped := zerolog.Ctx(ctx); scoped != nil && scoped.GetLevel() != zerolog.Disabled {
		logger = *scoped
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		logger = logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}
	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}
