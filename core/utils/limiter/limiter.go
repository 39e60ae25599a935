package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	minIdle = time.Minute
	maxIdle = 24 * time.Hour
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips   map[string]*visitor
	mu    *sync.Mutex
	limit rate.Limit
	burst int

	// idle visitors are dropped once their bucket is full again
	idle      time.Duration
	lastSweep time.Time
}

// NewIPRateLimiter new IP rate limiter, a zero limit allows everything
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*visitor),
		mu:    &sync.Mutex{},
		limit: r,
		burst: b,
		idle:  refillTime(r, b),
	}
}

// refillTime time for an empty bucket to fill up, kept within minIdle and maxIdle
func refillTime(r rate.Limit, b int) time.Duration {
	if r <= 0 {
		return minIdle
	}

	secs := float64(b) / float64(r)
	if secs >= maxIdle.Seconds() {
		return maxIdle
	}

	d := time.Duration(secs * float64(time.Second))
	if d < minIdle {
		return minIdle
	}

	return d
}

// GetLimiter get limiter
func (r *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.sweep(now)

	v, exists := r.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.ips[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

// sweep drop visitors not seen for r.idle, at most once per r.idle
func (r *IPRateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.idle {
		return
	}
	r.lastSweep = now

	for ip, v := range r.ips {
		if now.Sub(v.lastSeen) >= r.idle {
			delete(r.ips, ip)
		}
	}
}

// Len number of tracked ips
func (r *IPRateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.ips)
}

// Allow reports whether ip may make a request now
func (r *IPRateLimiter) Allow(ip string) bool {
	if r.limit <= 0 {
		return true
	}

	return r.GetLimiter(ip).Allow()
}
