package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
)

const testAddress = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

var testSecret = []byte("test-secret")

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	m := NewAuthMiddleware(testSecret, logging.NewDiscard(), []string{"/health"})
	handler := m.Handler(echoUser())

	valid, err := IssueToken(testSecret, testAddress, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	expired, err := IssueToken(testSecret, testAddress, -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	foreign, err := IssueToken([]byte("other"), testAddress, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"skip path", http.MethodPost, "/health", "", http.StatusOK, ""},
		{"read without token", http.MethodGet, "/supply", "", http.StatusOK, ""},
		{"read with token", http.MethodGet, "/supply", "Bearer " + valid, http.StatusOK, testAddress},
		{"write without token", http.MethodPost, "/mint", "", http.StatusUnauthorized, ""},
		{"bad scheme", http.MethodPost, "/mint", "Basic abc", http.StatusUnauthorized, ""},
		{"expired", http.MethodPost, "/mint", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", http.MethodPost, "/mint", "Bearer " + foreign, http.StatusUnauthorized, ""},
		{"valid", http.MethodPost, "/mint", "Bearer " + valid, http.StatusOK, testAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantUser {
				t.Errorf("user = %q, want %q", rec.Body.String(), tt.wantUser)
			}
		})
	}
}

func TestAuthMiddlewareRejectsOtherAlgorithms(t *testing.T) {
	m := NewAuthMiddleware(testSecret, logging.NewDiscard(), nil)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   testAddress,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.validateToken(signed); err == nil {
		t.Fatal("validateToken() accepted an HS512 token")
	}
}

func TestAuthMiddlewareRequiresSubject(t *testing.T) {
	m := NewAuthMiddleware(testSecret, logging.NewDiscard(), nil)
	signed, err := IssueToken(testSecret, "", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := m.validateToken(signed); err == nil {
		t.Fatal("validateToken() accepted a token without subject")
	}
}

func TestErrorBody(t *testing.T) {
	m := NewAuthMiddleware(testSecret, logging.NewDiscard(), nil)
	rec := httptest.NewRecorder()
	m.Handler(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/burn", nil))

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "UNAUTHORIZED" {
		t.Errorf("code = %v, want UNAUTHORIZED", body["code"])
	}
	if body["error"] == "" {
		t.Error("error message is empty")
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://dash.example", ".corp.example"}).Handler(echoUser())

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://dash.example", true},
		{"https://ops.corp.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin") == tt.origin
		if got != tt.allowed {
			t.Errorf("origin %s allowed = %v, want %v", tt.origin, got, tt.allowed)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/mint", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, logging.NewDiscard())
	now := time.Now()
	rl.now = func() time.Time { return now }
	handler := rl.Handler(echoUser())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/supply", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 200 429]", codes)
	}
	if got := last.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/supply", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.NewDiscard())
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.limiterFor("a")

	now = now.Add(2 * time.Minute)
	rl.limiterFor("b")

	if remaining := rl.Cleanup(time.Minute); remaining != 1 {
		t.Fatalf("Cleanup() remaining = %d, want 1", remaining)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	handler := NewRateLimiter(0, 0, logging.NewDiscard()).Handler(echoUser())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/supply", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestTracingAndMetrics(t *testing.T) {
	m := metrics.New("sss_mw_test")
	router := mux.NewRouter()
	router.Use(MetricsMiddleware("sss", m))
	router.Use(NewTracingMiddleware(logging.NewDiscard()).Handler)
	router.HandleFunc("/holders/{address}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(logging.GetTraceID(r.Context())))
	})

	req := httptest.NewRequest(http.MethodGet, "/holders/alice", nil)
	req.Header.Set(TraceHeader, "trace-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Body.String() != "trace-123" {
		t.Errorf("trace id in context = %q", rec.Body.String())
	}
	if rec.Header().Get(TraceHeader) != "trace-123" {
		t.Errorf("trace header = %q", rec.Header().Get(TraceHeader))
	}
	n, err := testutil.GatherAndCount(m.Registry(), "sss_mw_test_http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("request series = %d, want 1", n)
	}
}

func TestTracingReplacesOversizedTraceID(t *testing.T) {
	handler := NewTracingMiddleware(nil).Handler(echoUser())
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(TraceHeader, strings.Repeat("x", maxTraceIDLen+1))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get(TraceHeader)
	if got == "" || len(got) > maxTraceIDLen {
		t.Errorf("trace header = %q, want a fresh id", got)
	}
}
