package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowList(t *testing.T) {
	cors := NewCORSMiddleware([]string{"https://app.example.com", "*.databricksapps.com"})
	handler := cors.Handler(okHandler)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://app.example.com", true},
		{"https://forms.databricksapps.com", true},
		{"https://evil-databricksapps.com", false},
		{"https://other.example.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin")
		if tt.allowed && got != tt.origin {
			t.Errorf("origin %s: expected to be allowed, got %q", tt.origin, got)
		}
		if !tt.allowed && got != "" {
			t.Errorf("origin %s: expected to be rejected, got %q", tt.origin, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/1/toggle", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if called {
		t.Fatal("preflight must not reach the handler")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("PATCH missing from allowed methods")
	}
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, logger.NewDiscard())
	handler := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && !strings.Contains(rec.Body.String(), `"detail"`) {
			t.Fatalf("429 body missing detail: %s", rec.Body.String())
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client status = %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10, logger.NewDiscard())
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(10 * time.Minute)
	rl.getLimiter("b")

	if removed := rl.Cleanup(5 * time.Minute); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if rl.Size() != 1 {
		t.Fatalf("size = %d, want 1", rl.Size())
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0, logger.NewDiscard())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		rl.Handler(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
}

func TestLoggingMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	router := mux.NewRouter()
	router.Use(LoggingMiddleware(logger.NewDiscard()))
	router.HandleFunc("/api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/3", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/4", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("incoming request id not reused")
	}
}

func TestRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Handle("/api/tasks/{id:[0-9]+}", okHandler).Methods(http.MethodGet)
	router.MethodNotAllowedHandler = okHandler

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/tasks/7", "/api/tasks/{id:[0-9]+}"},
		{http.MethodDelete, "/api/tasks/7", "/api/tasks/7"},
		{http.MethodGet, "/api/tasks/abc", "/api/tasks/abc"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := routeTemplate(router, req); got != tc.want {
			t.Fatalf("%s %s: template = %q, want %q", tc.method, tc.path, got, tc.want)
		}
	}
	if got := routeTemplate(nil, httptest.NewRequest(http.MethodGet, "/x", nil)); got != "/x" {
		t.Fatalf("nil router template = %q", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:41000"
	if got := ClientIP(req); got != "192.0.2.7" {
		t.Fatalf("ClientIP = %q", got)
	}
	req.RemoteAddr = "pipe"
	if got := ClientIP(req); got != "pipe" {
		t.Fatalf("ClientIP = %q", got)
	}
}
