package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterKeys = 10000
	limiterIdle = 10 * time.Minute
)

// limiterStore keeps one token bucket per caller or IP. Idle buckets expire
// so the set stays bounded.
type limiterStore struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// newLimiterStore returns nil when rps is not positive, which disables
// limiting.
func newLimiterStore(rps float64, burst int) *limiterStore {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &limiterStore{
		limiters: expirable.NewLRU[string, *rate.Limiter](limiterKeys, nil, limiterIdle),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(s.rps, s.burst)
		s.limiters.Add(key, l)
	}
	return l
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limits == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r)
		if c, err := s.Sessions.Caller(r); err == nil {
			key = "caller:" + c.ID
		}
		if !s.limits.get(key).Allow() {
			s.Log.Warn("rate limit exceeded", zap.String("key", key))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded, try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
