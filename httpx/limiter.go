package httpx

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mbolis/quest-editor/log"
)

type ipLimiter struct {
	*rate.Limiter
	lastActive time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	sync.Mutex
	m     map[string]*ipLimiter
	limit rate.Limit
	burst int
	now   func() time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		m:     map[string]*ipLimiter{},
		limit: rate.Limit(perSecond),
		burst: burst,
		now:   time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.Lock()
	l, ok := rl.m[ip]
	if !ok {
		l = &ipLimiter{Limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.m[ip] = l
	}
	now := rl.now()
	l.lastActive = now
	rl.Unlock()

	return l.AllowN(now, 1)
}

// Sweep forgets the clients idle for longer than idle and returns how many
// were forgotten.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	rl.Lock()
	defer rl.Unlock()
	now := rl.now()
	n := 0
	for ip, l := range rl.m {
		if now.Sub(l.lastActive) > idle {
			delete(rl.m, ip)
			n++
		}
	}
	return n
}

// Middleware answers 429 once a client exceeds its rate.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.Allow(ip) {
			LogStatusMsg(w, http.StatusTooManyRequests, log.DebugLevel, "rate_limit", "too many requests from %s", ip)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP is the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
