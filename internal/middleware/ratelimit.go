package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/R3E-Network/stablecoin_layer/internal/errors"
	internalhttputil "github.com/R3E-Network/stablecoin_layer/internal/httputil"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per authenticated address, or per client IP
// for anonymous callers. A zero rate disables limiting.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	logger   *logging.Logger
	now      func() time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int, logger *logging.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger,
		now:      time.Now,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

func clientKey(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfter is the whole number of seconds until lim admits one more event.
func retryAfter(lim *rate.Limiter, now time.Time) int {
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return 1
	}
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		lim := rl.limiterFor(key)
		now := rl.now()
		if lim.AllowN(now, 1) {
			next.ServeHTTP(w, r)
			return
		}

		wait := retryAfter(lim, now)
		rl.logger.LogSecurityEvent(r.Context(), "rate_limit_exceeded", map[string]interface{}{
			"key":         key,
			"path":        r.URL.Path,
			"retry_after": wait,
		})
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		internalhttputil.WriteServiceError(w, r, errors.RateLimitExceeded(rl.burst, "burst"))
	})
}

// Cleanup drops limiters idle for longer than maxIdle and returns how many remain.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
	return len(rl.limiters)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(interval)
			}
		}
	}()
}
