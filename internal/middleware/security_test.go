package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestRouter(SecurityHeaders())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy header is missing")
	}
}

func TestCorrelationIDGenerated(t *testing.T) {
	router := newTestRouter(CorrelationID())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("no correlation ID generated")
	}
}

func TestCorrelationIDPropagated(t *testing.T) {
	router := newTestRouter(CorrelationID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "client-supplied-id")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-supplied-id" {
		t.Errorf("correlation ID = %q, want the client supplied value", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(CORS())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRateLimitEnforced(t *testing.T) {
	cfg := domain.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 2}
	router := newTestRouter(RateLimit(cfg))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		statuses = append(statuses, w.Code)

		if w.Code == http.StatusTooManyRequests {
			if !strings.Contains(w.Body.String(), domain.ErrRateLimit) {
				t.Errorf("429 body %q lacks error code %s", w.Body.String(), domain.ErrRateLimit)
			}
		}
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("requests within the burst returned %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("request over the burst returned %d, want %d", statuses[2], http.StatusTooManyRequests)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	router := newTestRouter(RateLimit(domain.RateLimitConfig{Enabled: false}))

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d returned %d with limiting disabled", i, w.Code)
		}
	}
}
