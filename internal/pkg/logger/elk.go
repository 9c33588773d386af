// internal/pkg/logger/elk.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// ELKConfig holds Elasticsearch shipping configuration.
type ELKConfig struct {
	URL           string
	Index         string
	Username      string
	Password      string
	BatchSize     int
	FlushInterval time.Duration
	Service       string
	Environment   string
}

// ELKHandler ships records to Elasticsearch through the bulk API. It is a
// pure secondary destination: local output stays on the handler it is
// composed with via MultiHandler.
type ELKHandler struct {
	client *http.Client
	config ELKConfig
	level  slog.Leveler
	mu     sync.Mutex
	buffer []esDocument
}

// esDocument is the shape indexed per record.
type esDocument struct {
	Timestamp   time.Time      `json:"@timestamp"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Service     string         `json:"service,omitempty"`
	Environment string         `json:"environment,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	TraceID     string         `json:"trace_id,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	ClientIP    string         `json:"client_ip,omitempty"`
	Method      string         `json:"method,omitempty"`
	Path        string         `json:"path,omitempty"`
	StatusCode  int            `json:"status_code,omitempty"`
	DurationMS  float64        `json:"duration_ms,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewELKHandler creates an Elasticsearch bulk handler with a background
// flusher.
func NewELKHandler(cfg ELKConfig, level slog.Leveler) *ELKHandler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	handler := &ELKHandler{
		client: &http.Client{Timeout: 10 * time.Second},
		config: cfg,
		level:  level,
		buffer: make([]esDocument, 0, cfg.BatchSize),
	}
	handler.startFlusher()

	return handler
}

func (h *ELKHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ELKHandler) Handle(ctx context.Context, record slog.Record) error {
	doc := h.buildDocument(ctx, record)

	h.mu.Lock()
	h.buffer = append(h.buffer, doc)
	shouldFlush := len(h.buffer) >= h.config.BatchSize
	h.mu.Unlock()

	if shouldFlush {
		go h.flush()
	}

	return nil
}

func (h *ELKHandler) buildDocument(ctx context.Context, record slog.Record) esDocument {
	doc := esDocument{
		Timestamp:   record.Time,
		Level:       record.Level.String(),
		Message:     record.Message,
		Service:     h.config.Service,
		Environment: h.config.Environment,
		RequestID:   contextString(ctx, ContextKeyRequestID),
		TraceID:     contextString(ctx, ContextKeyTraceID),
		UserID:      contextString(ctx, ContextKeyUserID),
		ClientIP:    contextString(ctx, ContextKeyClientIP),
		Method:      contextString(ctx, ContextKeyMethod),
		Path:        contextString(ctx, ContextKeyPath),
		Fields:      make(map[string]any),
	}

	if statusCode, ok := ctx.Value(ContextKeyStatusCode).(int); ok {
		doc.StatusCode = statusCode
	}
	if duration, ok := ctx.Value(ContextKeyDuration).(time.Duration); ok {
		doc.DurationMS = float64(duration.Milliseconds())
	}

	record.Attrs(func(a slog.Attr) bool {
		if a.Key == "error" || a.Key == "err" {
			if err, ok := a.Value.Any().(error); ok {
				doc.Error = err.Error()
				return true
			}
		}
		doc.Fields[a.Key] = a.Value.Any()
		return true
	})

	return doc
}

func (h *ELKHandler) flush() {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	docs := make([]esDocument, len(h.buffer))
	copy(docs, h.buffer)
	h.buffer = h.buffer[:0]
	h.mu.Unlock()

	h.send(docs)
}

func (h *ELKHandler) send(docs []esDocument) {
	var buf bytes.Buffer
	indexName := fmt.Sprintf("%s-%s", h.config.Index, time.Now().Format("2006.01.02"))

	for _, doc := range docs {
		meta := map[string]any{"index": map[string]string{"_index": indexName}}

		metaJSON, _ := json.Marshal(meta)
		buf.Write(metaJSON)
		buf.WriteByte('\n')

		docJSON, _ := json.Marshal(doc)
		buf.Write(docJSON)
		buf.WriteByte('\n')
	}

	req, err := http.NewRequest(http.MethodPost, h.config.URL+"/_bulk", &buf)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if h.config.Username != "" && h.config.Password != "" {
		req.SetBasicAuth(h.config.Username, h.config.Password)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to ship logs to Elasticsearch: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "Elasticsearch bulk request returned status %d\n", resp.StatusCode)
	}
}

func (h *ELKHandler) startFlusher() {
	go func() {
		ticker := time.NewTicker(h.config.FlushInterval)
		defer ticker.Stop()

		for range ticker.C {
			h.flush()
		}
	}()
}

func (h *ELKHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *ELKHandler) WithGroup(_ string) slog.Handler { return h }

func contextString(ctx context.Context, key ContextKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}
