package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/handlers/middleware"
	"github.com/Degbogueur/stock-management/internal/pkg/logger"
	"github.com/Degbogueur/stock-management/test/helpers"
)

func send(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	wrapped := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.ContextKeyRequestID).(string)
		w.WriteHeader(http.StatusOK)
	}))

	w := send(wrapped, httptest.NewRequest("GET", "/stocks", nil))

	require.NotEmpty(t, seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	wrapped := middleware.RequestID(okHandler())

	req := httptest.NewRequest("GET", "/stocks", nil)
	req.Header.Set("X-Request-ID", "trace-abc-001")
	w := send(wrapped, req)

	assert.Equal(t, "trace-abc-001", w.Header().Get("X-Request-ID"))
}

func TestLogger_PassesResponseThrough(t *testing.T) {
	wrapped := middleware.Logger(helpers.TestAppLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"op-1"}`))
	}))

	req := httptest.NewRequest("POST", "/operations", nil)
	req = req.WithContext(context.WithValue(req.Context(), logger.ContextKeyRequestID, "req-42"))
	w := send(wrapped, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"op-1"}`, w.Body.String())
}

func TestRecovery(t *testing.T) {
	wrapped := middleware.Recovery(helpers.TestLogger())

	t.Run("converts_panic_to_500", func(t *testing.T) {
		h := wrapped(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		req := httptest.NewRequest("GET", "/stocks", nil)
		req = req.WithContext(context.WithValue(req.Context(), logger.ContextKeyRequestID, "req-42"))
		w := send(h, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Internal Server Error")
		assert.Contains(t, w.Body.String(), "req-42")
	})

	t.Run("leaves_healthy_handlers_alone", func(t *testing.T) {
		h := wrapped(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("fine"))
		}))

		w := send(h, httptest.NewRequest("GET", "/stocks", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "fine", w.Body.String())
	})
}

func TestActor(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		expectedActor string
	}{
		{
			name:          "takes_actor_from_header",
			header:        "jdoe",
			expectedActor: "jdoe",
		},
		{
			name:          "trims_whitespace",
			header:        "  jdoe  ",
			expectedActor: "jdoe",
		},
		{
			name:          "defaults_to_system_actor",
			header:        "",
			expectedActor: domain.SystemActor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.expectedActor, domain.ActorFrom(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			wrapped := middleware.Actor(handler)

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("X-User-ID", tt.header)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	wrapped := middleware.RateLimit(2, time.Second)(okHandler())

	hit := func(addr string) int {
		req := httptest.NewRequest("GET", "/stocks", nil)
		req.RemoteAddr = addr
		return send(wrapped, req).Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1234"), "third request from same client exceeds the burst")

	// Limits are tracked per client, so a fresh IP starts with a full bucket.
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:5678"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		origin         string
		method         string
		wantStatus     int
		wantAllowed    string
	}{
		{
			name:           "wildcard_echoes_origin",
			allowedOrigins: []string{"*"},
			origin:         "https://example.com",
			method:         "GET",
			wantStatus:     http.StatusOK,
			wantAllowed:    "https://example.com",
		},
		{
			name:           "listed_origin_allowed",
			allowedOrigins: []string{"https://app.example.com", "https://admin.example.com"},
			origin:         "https://app.example.com",
			method:         "GET",
			wantStatus:     http.StatusOK,
			wantAllowed:    "https://app.example.com",
		},
		{
			name:           "unlisted_origin_gets_no_cors_headers",
			allowedOrigins: []string{"https://allowed.com"},
			origin:         "https://notallowed.com",
			method:         "GET",
			wantStatus:     http.StatusOK,
			wantAllowed:    "",
		},
		{
			name:           "preflight_short_circuits",
			allowedOrigins: []string{"*"},
			origin:         "https://example.com",
			method:         "OPTIONS",
			wantStatus:     http.StatusNoContent,
			wantAllowed:    "https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.CORS(tt.allowedOrigins)(okHandler())

			req := httptest.NewRequest(tt.method, "/stocks", nil)
			req.Header.Set("Origin", tt.origin)
			w := send(wrapped, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.method == "OPTIONS" && tt.wantAllowed != "" {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	w := send(middleware.SecureHeaders(okHandler()), httptest.NewRequest("GET", "/stocks", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'self'",
	}
	for header, value := range want {
		assert.Equal(t, value, w.Header().Get(header), header)
	}

	// HSTS only makes sense over TLS.
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestTimeout(t *testing.T) {
	slowHandler := func(delay time.Duration) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(delay):
				w.Write([]byte("done"))
			case <-r.Context().Done():
			}
		})
	}

	t.Run("fast_handler_completes", func(t *testing.T) {
		wrapped := middleware.Timeout(100 * time.Millisecond)(slowHandler(5 * time.Millisecond))
		w := send(wrapped, httptest.NewRequest("GET", "/reports/stock", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "done", w.Body.String())
	})

	t.Run("slow_handler_gets_504", func(t *testing.T) {
		wrapped := middleware.Timeout(20 * time.Millisecond)(slowHandler(500 * time.Millisecond))
		w := send(wrapped, httptest.NewRequest("GET", "/reports/stock", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "Request timeout")
	})
}
