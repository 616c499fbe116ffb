package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skybound/internal/aggregator"
	"github.com/dharmasatrya/skybound/internal/cache"
	"github.com/dharmasatrya/skybound/internal/config"
	"github.com/dharmasatrya/skybound/internal/handler"
	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/pricing"
	"github.com/dharmasatrya/skybound/internal/providers"
	"github.com/dharmasatrya/skybound/internal/ratelimit"
	"github.com/dharmasatrya/skybound/internal/rulestore"
	"github.com/dharmasatrya/skybound/internal/search"
	"github.com/dharmasatrya/skybound/internal/searchlog"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(handler.AccessLog())

	providerList := initializeProviders(cfg)
	log.Printf("Initialized %d GDS providers", len(providerList))

	rateLimiter := ratelimit.NewProviderLimiter()
	rateLimiter.SetQuota(models.ProviderAmadeus, ratelimit.Quota{
		RequestsPerSecond: cfg.Amadeus.RequestsPerSecond,
		BurstSize:         cfg.Amadeus.BurstSize,
	})
	rateLimiter.SetQuota(models.ProviderSabre, ratelimit.Quota{
		RequestsPerSecond: cfg.Sabre.RequestsPerSecond,
		BurstSize:         cfg.Sabre.BurstSize,
	})

	agg := aggregator.NewAggregator(providerList, aggregator.Config{
		Timeout:     cfg.SearchTimeout,
		RateLimiter: rateLimiter,
	})

	var redisClient *redis.Client
	if cfg.CacheEnabled || cfg.StoreBackend == config.BackendRedis {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	var offerCache cache.Cache
	if cfg.CacheEnabled {
		offerCache = cache.NewRedisCache(redisClient, cfg.RedisTTL)
		log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisTTL)
	} else {
		offerCache = cache.NewNoOpCache()
		log.Println("Cache disabled")
	}

	var (
		ruleStore rulestore.Store
		searchLog searchlog.Log
	)
	switch cfg.StoreBackend {
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := rulestore.NewRedisStore(ctx, redisClient, rulestore.DefaultRedisKey, models.DefaultPricingRules())
		cancel()
		if err != nil {
			log.Fatalf("Failed to open pricing rule store: %v", err)
		}
		ruleStore = store
		searchLog = searchlog.NewRedisLog(redisClient, searchlog.DefaultRedisKey)
	default:
		ruleStore = rulestore.NewMemoryStore(models.DefaultPricingRules())
		searchLog = searchlog.NewMemoryLog()
	}
	log.Printf("Pricing rules and search log stored in %s", cfg.StoreBackend)

	svc := search.NewService(agg, offerCache, pricing.NewEngine(ruleStore), searchLog)

	handler.Register(e,
		handler.NewSearchHandler(svc, cfg.Currency),
		handler.NewRulesHandler(ruleStore),
		handler.NewSearchLogHandler(searchLog),
	)

	log.Printf("Starting flight search server on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initializeProviders registers Amadeus before Sabre; that order is the
// order offers are concatenated in.
func initializeProviders(cfg config.Config) []providers.Provider {
	retry := providers.RetryConfig{
		MaxRetries:  cfg.MaxRetries,
		RetryDelays: cfg.RetryDelays,
	}

	amadeus := providers.NewAmadeusProvider(providers.AmadeusConfig{
		BaseURL:      cfg.Amadeus.BaseURL,
		ClientID:     cfg.Amadeus.ClientID,
		ClientSecret: cfg.Amadeus.ClientSecret,
		Currency:     cfg.Currency,
	})

	sabre := providers.NewSabreProvider(providers.SabreConfig{
		BaseURL:        cfg.Sabre.BaseURL,
		ClientID:       cfg.Sabre.ClientID,
		ClientSecret:   cfg.Sabre.ClientSecret,
		AccessToken:    cfg.Sabre.AccessToken,
		PseudoCityCode: cfg.Sabre.PseudoCityCode,
		Currency:       cfg.Currency,
	})

	return []providers.Provider{
		providers.WithRetry(amadeus, retry),
		providers.WithRetry(sabre, retry),
	}
}
