package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// clientLimiter enforces a per-client request budget per minute, keyed by
// remote IP. Windows reset lazily on access.
type clientLimiter struct {
	rpm int

	mu      sync.Mutex
	clients map[string]*clientWindow
	now     func() time.Time
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

func newClientLimiter(rpm int) *clientLimiter {
	return &clientLimiter{
		rpm:     rpm,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

// allow records a request for the client and reports whether it fits in the
// current window.
func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.windowStart) >= time.Minute {
		l.clients[client] = &clientWindow{count: 1, windowStart: now}
		l.pruneLocked(now)
		return true
	}
	if w.count >= l.rpm {
		return false
	}
	w.count++
	return true
}

// pruneLocked drops expired windows so the map stays bounded by active
// clients. Caller holds the lock.
func (l *clientLimiter) pruneLocked(now time.Time) {
	for ip, w := range l.clients {
		if now.Sub(w.windowStart) >= time.Minute {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects over-budget clients with 429.
func (l *clientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := r.RemoteAddr
		if host, _, err := net.SplitHostPort(client); err == nil {
			client = host
		}
		if !l.allow(client) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
