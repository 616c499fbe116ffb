// Package aggregator fans a search out to every configured GDS adapter and
// joins whatever comes back. A failing adapter only costs its own offers.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/providers"
	"github.com/dharmasatrya/skybound/internal/ratelimit"
)

type Config struct {
	Timeout     time.Duration
	RateLimiter *ratelimit.ProviderLimiter
}

type Aggregator struct {
	providers []providers.Provider
	config    Config
}

// Result carries the offers plus the provider health counters callers use to
// tell "no flights" apart from "providers down".
type Result struct {
	Offers             []models.Offer
	ProvidersQueried   int
	ProvidersSucceeded int
	ProvidersFailed    int
	FailedProviders    []string
	DroppedOffers      int
}

// NewAggregator queries providerList in the given order; that order is also
// the concatenation order of the results.
func NewAggregator(providerList []providers.Provider, config Config) *Aggregator {
	return &Aggregator{
		providers: providerList,
		config:    config,
	}
}

func (a *Aggregator) Providers() int {
	return len(a.providers)
}

func (a *Aggregator) Search(ctx context.Context, params models.SearchParams) *Result {
	searchCtx := ctx
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	type providerResult struct {
		offers []models.Offer
		err    error
	}

	results := make([]providerResult, len(a.providers))
	var wg sync.WaitGroup

	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, provider providers.Provider) {
			defer wg.Done()
			offers, err := a.searchProvider(searchCtx, provider, params)
			results[i] = providerResult{offers: offers, err: err}
		}(i, p)
	}

	wg.Wait()

	result := &Result{
		Offers:           make([]models.Offer, 0),
		ProvidersQueried: len(a.providers),
	}

	for i, pr := range results {
		name := a.providers[i].Name()
		if pr.err != nil {
			log.Printf("Provider %s failed: %v", name, pr.err)
			result.ProvidersFailed++
			result.FailedProviders = append(result.FailedProviders, string(name))
			continue
		}

		result.ProvidersSucceeded++
		for _, o := range pr.offers {
			if err := o.Validate(); err != nil {
				log.Printf("Provider %s: dropping offer: %v", name, err)
				result.DroppedOffers++
				continue
			}
			result.Offers = append(result.Offers, o)
		}
	}

	return result
}

// searchProvider never lets one adapter's panic, error or stall escape; each
// becomes a ProviderError for that adapter alone.
func (a *Aggregator) searchProvider(ctx context.Context, provider providers.Provider, params models.SearchParams) (offers []models.Offer, err error) {
	defer func() {
		if r := recover(); r != nil {
			offers = nil
			err = providers.NewProviderError(provider.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	if a.config.RateLimiter != nil {
		if err := a.config.RateLimiter.Wait(ctx, provider.Name()); err != nil {
			return nil, providers.NewProviderError(provider.Name(), fmt.Errorf("rate limit: %w", err))
		}
	}

	type searchResult struct {
		offers []models.Offer
		err    error
	}
	done := make(chan searchResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- searchResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		offers, err := provider.Search(ctx, params)
		done <- searchResult{offers: offers, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			var limited *providers.RateLimitError
			if errors.As(res.err, &limited) && a.config.RateLimiter != nil {
				a.config.RateLimiter.Backoff(provider.Name(), limited.RetryAfter)
			}
			return nil, providers.NewProviderError(provider.Name(), res.err)
		}
		return res.offers, nil
	case <-ctx.Done():
		return nil, providers.NewProviderError(provider.Name(), ctx.Err())
	}
}

// SearchRoundTrip runs the outbound and return legs concurrently. The
// inbound result is nil for one-way params.
func (a *Aggregator) SearchRoundTrip(ctx context.Context, params models.SearchParams) (outbound, inbound *Result) {
	if params.ReturnDate == nil || *params.ReturnDate == "" {
		return a.Search(ctx, params), nil
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		outbound = a.Search(ctx, params)
	}()

	go func() {
		defer wg.Done()
		inbound = a.Search(ctx, params.ReturnLeg())
	}()

	wg.Wait()
	return outbound, inbound
}
