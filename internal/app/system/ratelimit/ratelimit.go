package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a per-key token bucket. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration // how long an unused key is kept
	stop     chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter that allows `limit` events per `duration` for each
// key, with bursts of up to `limit`.
func New(limit int, duration time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	l := &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(duration / time.Duration(limit)),
		burst:    limit,
		idle:     duration * 2,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether an event for key may happen now, and consumes a
// token if so.
func (l *Limiter) Allow(key string) bool {
	return l.visitor(key).Allow()
}

// Remaining returns how many events key could make right now.
func (l *Limiter) Remaining(key string) int {
	n := int(l.visitor(key).Tokens())
	if n < 0 {
		return 0
	}
	return n
}

// Reset forgets key, restoring its full burst.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.visitors, key)
}

// Close stops the background cleanup.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) visitor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupLoop periodically removes idle keys to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, v := range l.visitors {
				if time.Since(v.lastSeen) > l.idle {
					delete(l.visitors, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// not read here: any client can set them. Behind a trusted reverse proxy,
// chi's middleware.RealIP (enabled by the trust_proxy setting) rewrites
// RemoteAddr before this runs.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// SubmitLimiter throttles analysis submissions per client IP. Every
// submission costs the analysis server real work (fetching archives,
// running the engine), so the budget is much tighter than for page views.
type SubmitLimiter struct {
	ip *Limiter
}

// NewSubmitLimiter allows perMinute submissions per IP per minute.
func NewSubmitLimiter(perMinute int) *SubmitLimiter {
	return &SubmitLimiter{ip: New(perMinute, time.Minute)}
}

// Check reports whether the submission may proceed. When it may not, the
// returned message is suitable for a toast.
func (s *SubmitLimiter) Check(r *http.Request) (bool, string) {
	if !s.ip.Allow(ClientIP(r)) {
		return false, "Too many analysis requests. Please wait a minute before trying again."
	}
	return true, ""
}

// Close stops the underlying limiter's cleanup.
func (s *SubmitLimiter) Close() {
	s.ip.Close()
}
