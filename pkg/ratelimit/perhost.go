// Package ratelimit provides a per-host rate limiter for outbound HTTP
// calls (parser fetches, geocoder lookups, the generic extractor). Each
// distinct host gets its own token bucket, created lazily on first use.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// PerHost holds one token-bucket limiter per upstream host.
type PerHost struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	ratePerSec float64
	burst      int
}

// NewPerHost builds a PerHost limiter; every host is limited to
// requestsPerSecond with a burst of the same size, mirroring the
// teacher's token-bucket default of burst == rps when unset.
func NewPerHost(requestsPerSecond float64) *PerHost {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &PerHost{
		limiters:   make(map[string]*rate.Limiter),
		ratePerSec: requestsPerSecond,
		burst:      burst,
	}
}

// Wait blocks until a token for host is available or ctx is cancelled.
func (p *PerHost) Wait(ctx context.Context, host string) error {
	return p.limiterFor(host).Wait(ctx)
}

func (p *PerHost) limiterFor(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.ratePerSec), p.burst)
		p.limiters[host] = l
	}
	return l
}
