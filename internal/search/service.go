// Package search runs one storefront search end to end: provider fan-out,
// markup, grouping, filters and ranking.
package search

import (
	"context"
	"log"
	"time"

	"github.com/dharmasatrya/skybound/internal/aggregator"
	"github.com/dharmasatrya/skybound/internal/cache"
	"github.com/dharmasatrya/skybound/internal/filter"
	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/pricing"
	"github.com/dharmasatrya/skybound/internal/ranking"
	"github.com/dharmasatrya/skybound/internal/searchlog"
)

type Service struct {
	aggregator *aggregator.Aggregator
	cache      cache.Cache
	engine     *pricing.Engine
	log        searchlog.Log
}

type Result struct {
	Request      models.SearchRequest
	Metadata     models.SearchMetadata
	Airlines     []models.AirlineFacet
	Groups       []models.OfferGroup
	ReturnGroups []models.OfferGroup
}

// NewService wires the pipeline. c and searchLog may be nil.
func NewService(agg *aggregator.Aggregator, c cache.Cache, engine *pricing.Engine, searchLog searchlog.Log) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Service{
		aggregator: agg,
		cache:      c,
		engine:     engine,
		log:        searchLog,
	}
}

// Search validates req and answers it. The only error is a
// models.ValidationError; provider trouble shows up in the metadata.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.TripType == models.RoundTrip {
		return s.searchRoundTrip(ctx, req), nil
	}

	start := time.Now()
	s.record(ctx, req.SearchParams)

	res, cacheHit := s.fetch(ctx, req.SearchParams)
	rules := s.engine.Snapshot(ctx)

	groups := prepareGroups(res.Offers, rules, req.Filters)
	airlines := filter.Airlines(groups)
	groups = ranking.Rank(groups, req.SortBy, req.Airline)

	meta := metadata(res, cacheHit, groups)
	meta.SearchTimeMs = time.Since(start).Milliseconds()

	return &Result{
		Request:  req,
		Metadata: meta,
		Airlines: airlines,
		Groups:   groups,
	}, nil
}

// SearchRoundTrip is Search for requests that must carry a return date.
func (s *Service) SearchRoundTrip(ctx context.Context, req models.SearchRequest) (*Result, error) {
	req.TripType = models.RoundTrip
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.searchRoundTrip(ctx, req), nil
}

func (s *Service) searchRoundTrip(ctx context.Context, req models.SearchRequest) *Result {
	start := time.Now()
	s.record(ctx, req.SearchParams)

	outParams := req.SearchParams
	outParams.TripType = models.OneWay
	outParams.ReturnDate = nil
	inParams := req.ReturnLeg()

	outRes, outHit := s.cached(ctx, outParams)
	inRes, inHit := s.cached(ctx, inParams)

	// Only the legs the cache missed go out to the providers.
	switch {
	case outHit && inHit:
	case outHit:
		inRes = s.aggregator.Search(ctx, inParams)
		s.store(ctx, inParams, inRes)
	case inHit:
		outRes = s.aggregator.Search(ctx, outParams)
		s.store(ctx, outParams, outRes)
	default:
		outRes, inRes = s.aggregator.SearchRoundTrip(ctx, req.SearchParams)
		s.store(ctx, outParams, outRes)
		s.store(ctx, inParams, inRes)
	}

	// Both legs are priced from the same snapshot.
	rules := s.engine.Snapshot(ctx)

	outGroups := prepareGroups(outRes.Offers, rules, req.Filters)
	inGroups := prepareGroups(inRes.Offers, rules, req.Filters)
	airlines := filter.Airlines(append(append([]models.OfferGroup{}, outGroups...), inGroups...))

	outGroups = ranking.Rank(outGroups, req.SortBy, req.Airline)
	inGroups = ranking.Rank(inGroups, req.SortBy, req.Airline)

	meta := metadata(outRes, outHit && inHit, outGroups)
	inMeta := metadata(inRes, inHit, inGroups)
	meta.TotalGroups += inMeta.TotalGroups
	meta.TotalOffers += inMeta.TotalOffers
	meta.ProvidersQueried += inMeta.ProvidersQueried
	meta.ProvidersSucceeded += inMeta.ProvidersSucceeded
	meta.ProvidersFailed += inMeta.ProvidersFailed
	meta.DroppedOffers += inMeta.DroppedOffers
	meta.FailedProviders = uniqueStrings(append(meta.FailedProviders, inMeta.FailedProviders...))
	meta.SearchTimeMs = time.Since(start).Milliseconds()

	return &Result{
		Request:      req,
		Metadata:     meta,
		Airlines:     airlines,
		Groups:       outGroups,
		ReturnGroups: inGroups,
	}
}

func (s *Service) fetch(ctx context.Context, params models.SearchParams) (*aggregator.Result, bool) {
	if res, found := s.cached(ctx, params); found {
		return res, true
	}

	res := s.aggregator.Search(ctx, params)
	s.store(ctx, params, res)
	return res, false
}

// cached rebuilds an aggregator result from the cache, provider counts
// included.
func (s *Service) cached(ctx context.Context, params models.SearchParams) (*aggregator.Result, bool) {
	entry, found := s.cache.Get(ctx, params)
	if !found || entry == nil {
		return nil, false
	}
	offers := entry.Offers
	if offers == nil {
		offers = make([]models.Offer, 0)
	}
	return &aggregator.Result{
		Offers:             offers,
		ProvidersQueried:   entry.ProvidersQueried,
		ProvidersSucceeded: entry.ProvidersSucceeded,
		DroppedOffers:      entry.DroppedOffers,
	}, true
}

// store caches only complete answers; a provider that failed would otherwise
// stay missing until the entry expires.
func (s *Service) store(ctx context.Context, params models.SearchParams, res *aggregator.Result) {
	if res == nil || res.ProvidersFailed > 0 {
		return
	}
	entry := cache.Entry{
		Offers:             res.Offers,
		ProvidersQueried:   res.ProvidersQueried,
		ProvidersSucceeded: res.ProvidersSucceeded,
		DroppedOffers:      res.DroppedOffers,
	}
	if err := s.cache.Set(ctx, params, entry); err != nil {
		log.Printf("cache set failed: %v", err)
	}
}

func (s *Service) record(ctx context.Context, params models.SearchParams) {
	if s.log == nil {
		return
	}
	if err := s.log.Record(ctx, params); err != nil {
		log.Printf("search log failed: %v", err)
	}
}

func prepareGroups(offers []models.Offer, rules []models.PricingRule, filters *models.SearchFilters) []models.OfferGroup {
	priced := pricing.Reprice(offers, rules)
	return filter.Apply(ranking.Group(priced), filters)
}

func metadata(res *aggregator.Result, cacheHit bool, groups []models.OfferGroup) models.SearchMetadata {
	total := 0
	for _, g := range groups {
		total += len(g.Offers)
	}
	return models.SearchMetadata{
		TotalGroups:        len(groups),
		TotalOffers:        total,
		ProvidersQueried:   res.ProvidersQueried,
		ProvidersSucceeded: res.ProvidersSucceeded,
		ProvidersFailed:    res.ProvidersFailed,
		FailedProviders:    res.FailedProviders,
		DroppedOffers:      res.DroppedOffers,
		CacheHit:           cacheHit,
	}
}

func uniqueStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	result := make([]string, 0, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
