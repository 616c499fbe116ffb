package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skybound/internal/models"
)

const (
	DefaultRedisKey = "pricing:rules"
	maxTxRetries    = 5
)

var ErrConcurrentUpdate = errors.New("pricing rules changed concurrently, try again")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps the whole ordered rule list as one JSON array, so a search
// always reads a consistent snapshot with a single GET.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore seeds key with seed unless it already holds rules.
func NewRedisStore(ctx context.Context, client *redis.Client, key string, seed []models.PricingRule) (*RedisStore, error) {
	if key == "" {
		key = DefaultRedisKey
	}
	if seed == nil {
		seed = []models.PricingRule{}
	}

	data, err := json.Marshal(seed)
	if err != nil {
		return nil, err
	}
	if err := client.SetNX(ctx, key, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("seed pricing rules: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Rules(ctx context.Context) ([]models.PricingRule, error) {
	return s.load(ctx, s.client)
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.PricingRule, error) {
	rules, err := s.load(ctx, s.client)
	if err != nil {
		return models.PricingRule{}, err
	}
	return find(rules, id)
}

func (s *RedisStore) Create(ctx context.Context, rule models.PricingRule) (models.PricingRule, error) {
	var created models.PricingRule
	err := s.mutate(ctx, func(rules []models.PricingRule) ([]models.PricingRule, error) {
		next, r, err := applyCreate(rules, rule)
		created = r
		return next, err
	})
	return created, err
}

func (s *RedisStore) Update(ctx context.Context, id string, rule models.PricingRule) (models.PricingRule, error) {
	var updated models.PricingRule
	err := s.mutate(ctx, func(rules []models.PricingRule) ([]models.PricingRule, error) {
		next, r, err := applyUpdate(rules, id, rule)
		updated = r
		return next, err
	})
	return updated, err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(rules []models.PricingRule) ([]models.PricingRule, error) {
		return applyDelete(rules, id)
	})
}

func (s *RedisStore) load(ctx context.Context, c getter) ([]models.PricingRule, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return []models.PricingRule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pricing rules: %w", err)
	}

	var rules []models.PricingRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode pricing rules: %w", err)
	}
	return rules, nil
}

// mutate applies fn under WATCH so two admins editing at once cannot lose
// each other's change.
func (s *RedisStore) mutate(ctx context.Context, fn func([]models.PricingRule) ([]models.PricingRule, error)) error {
	txf := func(tx *redis.Tx) error {
		rules, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(rules)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return ErrConcurrentUpdate
}
