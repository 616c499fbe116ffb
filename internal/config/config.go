// Package config reads server settings from an optional .properties file.
// Every key can be overridden by an environment variable named after it,
// upper-cased with dots replaced by underscores (redis.host -> REDIS_HOST).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/magiconair/properties"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port         string
	CacheEnabled bool

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// StoreBackend holds pricing rules and the search log: memory or redis.
	StoreBackend string

	SearchTimeout time.Duration
	MaxRetries    int
	RetryDelays   []time.Duration

	Amadeus ProviderConfig
	Sabre   ProviderConfig

	Currency string
}

type ProviderConfig struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	AccessToken       string
	PseudoCityCode    string
	// Zero keeps the GDS's published quota.
	RequestsPerSecond float64
	BurstSize         int
}

// Load reads path if it is set; an empty path means defaults plus
// environment.
func Load(path string) (Config, error) {
	p := properties.NewProperties()
	if path != "" {
		loaded, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		p = loaded
	}
	return FromProperties(p)
}

func FromProperties(p *properties.Properties) (Config, error) {
	delays, err := getDurationList(p, "retry.delays", []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:         getString(p, "port", "8080"),
		CacheEnabled: getBool(p, "cache.enabled", true),

		RedisHost:     getString(p, "redis.host", "localhost"),
		RedisPort:     getString(p, "redis.port", "6379"),
		RedisPassword: getString(p, "redis.password", ""),
		RedisDB:       getInt(p, "redis.db", 0),
		RedisTTL:      getDuration(p, "redis.ttl", 5*time.Minute),

		StoreBackend: strings.ToLower(getString(p, "store.backend", BackendMemory)),

		SearchTimeout: getDuration(p, "search.timeout", 10*time.Second),
		MaxRetries:    getInt(p, "retry.max", 2),
		RetryDelays:   delays,

		Amadeus: ProviderConfig{
			BaseURL:           getString(p, "amadeus.base_url", ""),
			ClientID:          getString(p, "amadeus.client_id", ""),
			ClientSecret:      getString(p, "amadeus.client_secret", ""),
			RequestsPerSecond: getFloat(p, "ratelimit.amadeus.rps", 0),
			BurstSize:         getInt(p, "ratelimit.amadeus.burst", 0),
		},
		Sabre: ProviderConfig{
			BaseURL:           getString(p, "sabre.base_url", ""),
			ClientID:          getString(p, "sabre.client_id", ""),
			ClientSecret:      getString(p, "sabre.client_secret", ""),
			AccessToken:       getString(p, "sabre.access_token", ""),
			PseudoCityCode:    getString(p, "sabre.pcc", ""),
			RequestsPerSecond: getFloat(p, "ratelimit.sabre.rps", 0),
			BurstSize:         getInt(p, "ratelimit.sabre.burst", 0),
		},

		Currency: strings.ToUpper(getString(p, "currency", "TWD")),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		return Config{}, fmt.Errorf("store.backend must be %s or %s, got %q", BackendMemory, BackendRedis, cfg.StoreBackend)
	}

	return cfg, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func getString(p *properties.Properties, key, defaultValue string) string {
	if value := os.Getenv(envName(key)); value != "" {
		return value
	}
	return p.GetString(key, defaultValue)
}

func getBool(p *properties.Properties, key string, defaultValue bool) bool {
	value := os.Getenv(envName(key))
	if value == "" {
		return p.GetBool(key, defaultValue)
	}
	return value == "true" || value == "1" || value == "yes"
}

func getInt(p *properties.Properties, key string, defaultValue int) int {
	value := os.Getenv(envName(key))
	if value == "" {
		return p.GetInt(key, defaultValue)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(p *properties.Properties, key string, defaultValue float64) float64 {
	value := os.Getenv(envName(key))
	if value == "" {
		return p.GetFloat64(key, defaultValue)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getDuration(p *properties.Properties, key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envName(key))
	if value == "" {
		return p.GetParsedDuration(key, defaultValue)
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getDurationList parses a comma separated list such as "100ms,200ms".
func getDurationList(p *properties.Properties, key string, defaultValue []time.Duration) ([]time.Duration, error) {
	raw := getString(p, key, "")
	if raw == "" {
		return defaultValue, nil
	}

	var delays []time.Duration
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		delays = append(delays, d)
	}
	return delays, nil
}
