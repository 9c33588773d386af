// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ContextHandler lifts request-scoped context values into log records so
// call sites never have to repeat request_id, actor, or route attributes.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := extractContextAttrs(ctx); len(attrs) > 0 {
		record = record.Clone()
		record.Add(attrs...)
	}
	return h.next.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// SamplingHandler drops a share of debug/info records under load. Warnings
// and errors always pass.
type SamplingHandler struct {
	next slog.Handler
	rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSamplingHandler(next slog.Handler, rate float64) *SamplingHandler {
	return &SamplingHandler{
		next: next,
		rate: rate,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *SamplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if !h.next.Enabled(ctx, level) {
		return false
	}
	if level >= slog.LevelWarn {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64() < h.rate
}

func (h *SamplingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.Float64("sample_rate", h.rate))
	return h.next.Handle(ctx, record)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{next: h.next.WithAttrs(attrs), rate: h.rate, rng: h.rng}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{next: h.next.WithGroup(name), rate: h.rate, rng: h.rng}
}

// SanitizationHandler masks credentials and personal data before records
// leave the process.
type SanitizationHandler struct {
	next      slog.Handler
	redactors []*regexp.Regexp
	denyKeys  []string
}

const redacted = "***REDACTED***"

var (
	credentialPattern = regexp.MustCompile(`(?i)(password|pwd|pass|secret|token|key|auth|jwt|bearer|api[-_]?key)\s*[:=]\s*["']?([^"'\s]+)`)
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
)

func NewSanitizationHandler(next slog.Handler) *SanitizationHandler {
	return &SanitizationHandler{
		next:      next,
		redactors: []*regexp.Regexp{credentialPattern, emailPattern},
		denyKeys:  []string{"password", "pwd", "secret", "token", "auth", "jwt", "api_key"},
	}
}

func (h *SanitizationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizationHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.redactString(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *SanitizationHandler) redactAttr(attr slog.Attr) slog.Attr {
	key := strings.ToLower(attr.Key)
	for _, deny := range h.denyKeys {
		if strings.Contains(key, deny) {
			attr.Value = slog.StringValue(redacted)
			return attr
		}
	}
	if s, ok := attr.Value.Any().(string); ok {
		attr.Value = slog.StringValue(h.redactString(s))
	}
	return attr
}

func (h *SanitizationHandler) redactString(s string) string {
	for _, re := range h.redactors {
		s = re.ReplaceAllString(s, "$1="+redacted)
	}
	return s
}

func (h *SanitizationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizationHandler{next: h.next.WithAttrs(attrs), redactors: h.redactors, denyKeys: h.denyKeys}
}

func (h *SanitizationHandler) WithGroup(name string) slog.Handler {
	return &SanitizationHandler{next: h.next.WithGroup(name), redactors: h.redactors, denyKeys: h.denyKeys}
}

// MultiHandler fans one record out to several destinations, local output
// plus Elasticsearch in production.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		errs = append(errs, hh.Handle(ctx, record))
	}
	return errors.Join(errs...)
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.fanOut(func(hh slog.Handler) slog.Handler { return hh.WithAttrs(attrs) })
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.fanOut(func(hh slog.Handler) slog.Handler { return hh.WithGroup(name) })
}

func (h *MultiHandler) fanOut(wrap func(slog.Handler) slog.Handler) *MultiHandler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = wrap(hh)
	}
	return &MultiHandler{handlers: next}
}

// PrettyTextHandler renders colored single-line output for development.
type PrettyTextHandler struct {
	*slog.TextHandler
	mu sync.Mutex
	w  io.Writer
}

func NewPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyTextHandler {
	return &PrettyTextHandler{
		TextHandler: slog.NewTextHandler(w, opts),
		w:           w,
	}
}

const ansiReset = "\033[0m"

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[37m",
	slog.LevelInfo:  "\033[34m",
	slog.LevelWarn:  "\033[33m",
	slog.LevelError: "\033[31m",
}

func (h *PrettyTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	color, ok := levelColors[r.Level]
	if !ok {
		color = ansiReset
	}
	level := strings.ToUpper(r.Level.String())

	fmt.Fprintf(h.w, "%s%s %-5s%s %s",
		color, r.Time.Format("2006-01-02 15:04:05.000"), level, ansiReset, r.Message)

	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, " \033[36m%s=%v%s", a.Key, a.Value, ansiReset)
		return true
	})
	fmt.Fprintln(h.w)

	return nil
}
