// Package cache keeps raw provider offers for a short while. Offers are
// stored before markup so a rule change applies to the very next search.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skybound/internal/models"
)

const keyPrefix = "offers:"

// Entry is one cached provider answer. The counts describe the fan-out that
// produced Offers so a cached answer reports the same provider metadata.
type Entry struct {
	Offers             []models.Offer `json:"offers"`
	ProvidersQueried   int            `json:"providers_queried"`
	ProvidersSucceeded int            `json:"providers_succeeded"`
	DroppedOffers      int            `json:"dropped_offers"`
}

type Cache interface {
	Get(ctx context.Context, params models.SearchParams) (*Entry, bool)
	Set(ctx context.Context, params models.SearchParams, entry Entry) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host: "localhost",
		Port: "6379",
		DB:   0,
		TTL:  5 * time.Minute,
	}
}

// NewRedisClient dials and pings Redis. The rule store and search log share
// the client handed out here.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, params models.SearchParams) (*Entry, bool) {
	data, err := c.client.Get(ctx, generateKey(params)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get failed: %v", err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("cache entry unreadable: %v", err)
		return nil, false
	}

	return &entry, true
}

func (c *RedisCache) Set(ctx context.Context, params models.SearchParams, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, generateKey(params), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, params models.SearchParams) (*Entry, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, params models.SearchParams, entry Entry) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// generateKey covers everything a provider sees. Sorting and filters are
// applied after the cache and stay out of the key.
func generateKey(params models.SearchParams) string {
	keyData := struct {
		Origin        string
		Destination   string
		DepartureDate string
		Adults        int
		Children      int
		Infants       int
		CabinClass    string
	}{
		Origin:        params.Origin,
		Destination:   params.Destination,
		DepartureDate: params.DepartureDate,
		Adults:        params.Adults,
		Children:      params.Children,
		Infants:       params.Infants,
		CabinClass:    string(params.CabinClass),
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(hash[:])
}
