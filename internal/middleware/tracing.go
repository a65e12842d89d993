package middleware

import (
	"net/http"
	"time"

	"github.com/R3E-Network/stablecoin_layer/internal/logging"
)

// TraceHeader carries the request trace id in both directions.
const TraceHeader = "X-Trace-ID"

// maxTraceIDLen bounds caller-supplied ids before they reach the logs.
const maxTraceIDLen = 128

// TracingMiddleware tags each request with a trace id and logs it on completion.
type TracingMiddleware struct {
	logger *logging.Logger
}

func NewTracingMiddleware(logger *logging.Logger) *TracingMiddleware {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &TracingMiddleware{logger: logger}
}

func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := requestTraceID(r)
		w.Header().Set(TraceHeader, traceID)
		ctx := logging.WithTraceID(r.Context(), traceID)

		rw := wrapResponseWriter(w)
		began := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))
		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(began))
	})
}

// requestTraceID reuses the caller's id unless it is missing or oversized.
func requestTraceID(r *http.Request) string {
	id := r.Header.Get(TraceHeader)
	if id == "" || len(id) > maxTraceIDLen {
		return logging.NewTraceID()
	}
	return id
}
