// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey identifies request-scoped values the logging pipeline lifts
// into log records.
type ContextKey string

const (
	ContextKeyRequestID  ContextKey = "request_id"
	ContextKeyUserID     ContextKey = "user_id"
	ContextKeyTraceID    ContextKey = "trace_id"
	ContextKeyClientIP   ContextKey = "client_ip"
	ContextKeyUserAgent  ContextKey = "user_agent"
	ContextKeyMethod     ContextKey = "method"
	ContextKeyPath       ContextKey = "path"
	ContextKeyStatusCode ContextKey = "status_code"
	ContextKeyDuration   ContextKey = "duration_ms"
)

var contextKeys = [...]ContextKey{
	ContextKeyRequestID,
	ContextKeyUserID,
	ContextKeyTraceID,
	ContextKeyClientIP,
	ContextKeyUserAgent,
	ContextKeyMethod,
	ContextKeyPath,
	ContextKeyStatusCode,
	ContextKeyDuration,
}

// Config holds logger configuration.
type Config struct {
	Level            string
	Format           string // json, text
	Output           string // stdout, stderr, file:<path>
	AddSource        bool
	SampleRate       float64
	EnableStackTrace bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	Elasticsearch    *ELKConfig
}

// Logger wraps slog.Logger with context extraction and error stack capture.
type Logger struct {
	*slog.Logger
	config *Config
}

// SetupLogger builds the process-wide logger. Sampling and Elasticsearch
// shipping are opt-in through LOG_SAMPLE_RATE and LOG_ELK_URL so the worker
// and api binaries share one entry point.
func SetupLogger(level string, format string) *Logger {
	cfg := &Config{
		Level:            level,
		Format:           format,
		Output:           "stdout",
		AddSource:        true,
		EnableStackTrace: level == "debug",
		ServiceName:      os.Getenv("SERVICE_NAME"),
		ServiceVersion:   os.Getenv("SERVICE_VERSION"),
		Environment:      os.Getenv("APP_ENV"),
	}

	if rate, err := strconv.ParseFloat(os.Getenv("LOG_SAMPLE_RATE"), 64); err == nil && rate > 0 && rate < 1 {
		cfg.SampleRate = rate
	}

	if url := os.Getenv("LOG_ELK_URL"); url != "" {
		index := cfg.ServiceName
		if index == "" {
			index = "stock-management"
		}
		cfg.Elasticsearch = &ELKConfig{
			URL:           url,
			Index:         index,
			Username:      os.Getenv("LOG_ELK_USERNAME"),
			Password:      os.Getenv("LOG_ELK_PASSWORD"),
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
			Service:       cfg.ServiceName,
			Environment:   cfg.Environment,
		}
	}

	log := NewLogger(cfg)
	slog.SetDefault(log.Logger)

	return log
}

// NewLogger assembles the handler chain: format handler, context extraction,
// optional sampling, sanitization, optional Elasticsearch fan-out.
func NewLogger(cfg *Config) *Logger {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "json", Output: "stdout"}
	}

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return rewriteAttr(cfg.Format, a)
		},
	}

	out := openOutput(cfg.Output)
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = NewPrettyTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	handler = NewContextHandler(handler)
	if cfg.SampleRate > 0 && cfg.SampleRate < 1 {
		handler = NewSamplingHandler(handler, cfg.SampleRate)
	}
	handler = NewSanitizationHandler(handler)
	if cfg.Elasticsearch != nil {
		handler = NewMultiHandler(handler, NewELKHandler(*cfg.Elasticsearch, level))
	}

	if attrs := serviceAttrs(cfg); len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return &Logger{Logger: slog.New(handler), config: cfg}
}

func serviceAttrs(cfg *Config) []slog.Attr {
	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, slog.String("env", cfg.Environment))
	}
	return attrs
}

// WithContext returns a slog.Logger carrying the request-scoped attributes
// present in ctx.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	if attrs := extractContextAttrs(ctx); len(attrs) > 0 {
		return l.Logger.With(attrs...)
	}
	return l.Logger
}

// LogWithContext logs with context extraction plus caller and stack capture
// for error records.
func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if level >= slog.LevelError || l.config.EnableStackTrace {
		if pc, file, line, ok := runtime.Caller(1); ok {
			args = append(args,
				slog.String("caller", fmt.Sprintf("%s:%d", file, line)),
				slog.String("function", runtime.FuncForPC(pc).Name()),
			)
		}
	}
	if level >= slog.LevelError && l.config.EnableStackTrace {
		buf := make([]byte, 8*1024)
		args = append(args, slog.String("stack", string(buf[:runtime.Stack(buf, false)])))
	}

	l.WithContext(ctx).Log(ctx, level, msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

func openOutput(output string) io.Writer {
	switch {
	case output == "stderr":
		return os.Stderr
	case strings.HasPrefix(output, "file:"):
		f, err := os.OpenFile(strings.TrimPrefix(output, "file:"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	default:
		return os.Stdout
	}
}

func extractContextAttrs(ctx context.Context) []any {
	attrs := make([]any, 0, len(contextKeys))

	for _, key := range contextKeys {
		val := ctx.Value(key)
		if val == nil {
			continue
		}
		name := string(key)
		switch v := val.(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(name, v))
			}
		case int:
			attrs = append(attrs, slog.Int(name, v))
		case int64:
			attrs = append(attrs, slog.Int64(name, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(name, v))
		case time.Time:
			attrs = append(attrs, slog.Time(name, v))
		case uuid.UUID:
			attrs = append(attrs, slog.String(name, v.String()))
		default:
			attrs = append(attrs, slog.Any(name, v))
		}
	}

	return attrs
}

func rewriteAttr(format string, a slog.Attr) slog.Attr {
	switch {
	case a.Key == slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	case a.Key == slog.LevelKey && format == "json":
		// Log aggregators key on "severity"
		a.Key = "severity"
	case strings.HasSuffix(a.Key, "_ms"):
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Milliseconds()))
		}
	}
	return a
}
