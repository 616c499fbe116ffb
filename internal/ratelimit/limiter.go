// Package ratelimit keeps outgoing shop requests inside each GDS's quota and
// holds a provider back after it answers 429 Too Many Requests.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dharmasatrya/skybound/internal/models"
)

const (
	// DefaultBackoff applies when a 429 carries no usable Retry-After.
	DefaultBackoff = time.Second
	// MaxBackoff caps how long one Retry-After can silence a provider.
	MaxBackoff = time.Minute
)

// Quota is a token bucket: a sustained rate plus the burst above it.
type Quota struct {
	RequestsPerSecond float64
	BurstSize         int
}

// Amadeus Self-Service allows 10 transactions per second per application and
// no more than one request per 100ms, so it gets no burst. Sabre publishes no
// figure for Bargain Finder Max; 5 rps is what a test PCC tolerates.
var gdsQuotas = map[models.Provider]Quota{
	models.ProviderAmadeus: {RequestsPerSecond: 10, BurstSize: 1},
	models.ProviderSabre:   {RequestsPerSecond: 5, BurstSize: 5},
}

var fallbackQuota = Quota{RequestsPerSecond: 5, BurstSize: 5}

// DefaultQuota returns the published quota for provider.
func DefaultQuota(provider models.Provider) Quota {
	if q, ok := gdsQuotas[provider]; ok {
		return q
	}
	return fallbackQuota
}

type bucket struct {
	limiter *rate.Limiter
	until   time.Time
}

type ProviderLimiter struct {
	mu      sync.Mutex
	buckets map[models.Provider]*bucket
	now     func() time.Time
}

func NewProviderLimiter() *ProviderLimiter {
	return &ProviderLimiter{
		buckets: make(map[models.Provider]*bucket),
		now:     time.Now,
	}
}

// bucket must be called with mu held.
func (p *ProviderLimiter) bucket(provider models.Provider) *bucket {
	b, ok := p.buckets[provider]
	if !ok {
		q := DefaultQuota(provider)
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(q.RequestsPerSecond), q.BurstSize)}
		p.buckets[provider] = b
	}
	return b
}

// SetQuota overrides the published quota, e.g. for a production key with a
// negotiated limit. A non-positive field keeps the published value.
func (p *ProviderLimiter) SetQuota(provider models.Provider, q Quota) {
	def := DefaultQuota(provider)
	if q.RequestsPerSecond <= 0 {
		q.RequestsPerSecond = def.RequestsPerSecond
	}
	if q.BurstSize <= 0 {
		q.BurstSize = def.BurstSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.bucket(provider)
	b.limiter.SetLimit(rate.Limit(q.RequestsPerSecond))
	b.limiter.SetBurst(q.BurstSize)
}

func (p *ProviderLimiter) Quota(provider models.Provider) Quota {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.bucket(provider)
	return Quota{RequestsPerSecond: float64(b.limiter.Limit()), BurstSize: b.limiter.Burst()}
}

// Backoff silences provider for retryAfter, clamped to (0, MaxBackoff]. A
// shorter backoff never cuts an earlier one short.
func (p *ProviderLimiter) Backoff(provider models.Provider, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}
	if retryAfter > MaxBackoff {
		retryAfter = MaxBackoff
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.bucket(provider)
	if until := p.now().Add(retryAfter); until.After(b.until) {
		b.until = until
	}
}

// CoolingDown reports how long provider stays silenced.
func (p *ProviderLimiter) CoolingDown(provider models.Provider) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d := p.bucket(provider).until.Sub(p.now()); d > 0 {
		return d
	}
	return 0
}

// Wait blocks until provider is out of backoff and has a token, or ctx ends.
func (p *ProviderLimiter) Wait(ctx context.Context, provider models.Provider) error {
	if d := p.CoolingDown(provider); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	limiter := p.bucket(provider).limiter
	p.mu.Unlock()
	return limiter.Wait(ctx)
}
