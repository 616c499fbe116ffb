package providers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dharmasatrya/skybound/internal/models"
)

type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

type retryingProvider struct {
	next   Provider
	config RetryConfig
}

// WithRetry re-issues failed searches on next, waiting RetryDelays[i] before
// attempt i+1 and reusing the last delay once the table runs out. Missing
// credentials are not retried, nor is a 429: the aggregator's limiter backs
// the provider off instead.
func WithRetry(next Provider, config RetryConfig) Provider {
	if config.MaxRetries <= 0 {
		return next
	}
	return &retryingProvider{next: next, config: config}
}

func (p *retryingProvider) Name() models.Provider {
	return p.next.Name()
}

func (p *retryingProvider) Search(ctx context.Context, params models.SearchParams) ([]models.Offer, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 && len(p.config.RetryDelays) > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(p.config.RetryDelays) {
				delayIdx = len(p.config.RetryDelays) - 1
			}

			select {
			case <-time.After(p.config.RetryDelays[delayIdx]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		offers, err := p.next.Search(ctx, params)
		if err == nil {
			return offers, nil
		}
		if errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrRateLimited) {
			return nil, err
		}

		lastErr = err
		log.Printf("Provider %s attempt %d failed: %v", p.next.Name(), attempt+1, err)
	}

	return nil, lastErr
}
