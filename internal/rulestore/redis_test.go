package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/magiconair/properties/assert"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skybound/internal/models"
)

func newRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, client := newRedisClient(t)
	s, err := NewRedisStore(context.Background(), client, "", models.DefaultPricingRules())
	assert.Equal(t, err, nil)
	return mr, s
}

func TestRedisStoreSeedsOnce(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedisClient(t)

	s, err := NewRedisStore(ctx, client, "", models.DefaultPricingRules())
	assert.Equal(t, err, nil)
	assert.Equal(t, mr.Exists(DefaultRedisKey), true)

	_, err = s.Create(ctx, models.PricingRule{ID: "ci_eco", AirlineCode: "CI", CabinClass: models.CabinEconomy, MarkupAmount: 3})
	assert.Equal(t, err, nil)

	// A second instance starting against the same key keeps the edited list.
	again, err := NewRedisStore(ctx, client, DefaultRedisKey, models.DefaultPricingRules())
	assert.Equal(t, err, nil)
	rules, err := again.Rules(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(rules), 3)
	assert.Equal(t, rules[2].ID, "ci_eco")
}

func TestRedisStoreMissingKeyIsEmpty(t *testing.T) {
	ctx := context.Background()
	mr, s := newRedisStore(t)
	mr.Del(DefaultRedisKey)

	rules, err := s.Rules(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, rules, []models.PricingRule{})

	_, err = s.Get(ctx, "default")
	assert.Equal(t, errors.Is(err, ErrRuleNotFound), true)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, s := newRedisStore(t)
	assert.Equal(t, mr.Set(DefaultRedisKey, "not json"), nil)

	_, err := s.Rules(context.Background())
	assert.Equal(t, err != nil, true)
}

func TestRedisStoreCRUD(t *testing.T) {
	ctx := context.Background()
	mr, s := newRedisStore(t)

	created, err := s.Create(ctx, models.PricingRule{AirlineCode: "jl", CabinClass: "y", MarkupAmount: 2})
	assert.Equal(t, err, nil)
	assert.Equal(t, created.ID != "", true)
	assert.Equal(t, created.AirlineCode, "JL")

	_, err = s.Create(ctx, models.PricingRule{ID: "default", AirlineCode: "JL", CabinClass: models.CabinEconomy})
	assert.Equal(t, errors.Is(err, ErrRuleExists), true)

	updated, err := s.Update(ctx, "default", models.PricingRule{
		AirlineCode:  models.AllAirlines,
		CabinClass:   models.CabinEconomy,
		MarkupAmount: 500,
		MarkupType:   models.MarkupFixed,
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.ID, "default")

	_, err = s.Update(ctx, "missing", models.PricingRule{AirlineCode: "JL", CabinClass: models.CabinEconomy})
	assert.Equal(t, errors.Is(err, ErrRuleNotFound), true)

	assert.Equal(t, s.Delete(ctx, "br_biz"), nil)
	assert.Equal(t, errors.Is(s.Delete(ctx, "br_biz"), ErrRuleNotFound), true)

	// The stored value is the ordered JSON array a search reads in one GET.
	raw, err := mr.Get(DefaultRedisKey)
	assert.Equal(t, err, nil)
	var stored []models.PricingRule
	assert.Equal(t, json.Unmarshal([]byte(raw), &stored), nil)
	assert.Equal(t, len(stored), 2)
	assert.Equal(t, stored[0].ID, "default")
	assert.Equal(t, stored[0].MarkupAmount, 500.0)
	assert.Equal(t, stored[1].ID, created.ID)

	rule, err := s.Get(ctx, created.ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, rule.AirlineCode, "JL")
}

func TestRedisStoreRetriesWhenRulesChangeMidUpdate(t *testing.T) {
	ctx := context.Background()
	_, s := newRedisStore(t)

	attempts := 0
	err := s.mutate(ctx, func(rules []models.PricingRule) ([]models.PricingRule, error) {
		attempts++
		if attempts == 1 {
			// Another admin saves between our read and our write.
			other, _, err := applyCreate(rules, models.PricingRule{ID: "ci_eco", AirlineCode: "CI", CabinClass: models.CabinEconomy, MarkupAmount: 3})
			assert.Equal(t, err, nil)
			data, _ := json.Marshal(other)
			assert.Equal(t, s.client.Set(ctx, s.key, data, 0).Err(), nil)
		}
		next, _, err := applyCreate(rules, models.PricingRule{ID: "jl_eco", AirlineCode: "JL", CabinClass: models.CabinEconomy, MarkupAmount: 2})
		return next, err
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, attempts, 2)

	rules, _ := s.Rules(ctx)
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, ids, []string{"default", "br_biz", "ci_eco", "jl_eco"})
}

func TestRedisStoreGivesUpUnderConstantContention(t *testing.T) {
	ctx := context.Background()
	_, s := newRedisStore(t)

	attempts := 0
	err := s.mutate(ctx, func(rules []models.PricingRule) ([]models.PricingRule, error) {
		attempts++
		data, _ := json.Marshal(rules)
		assert.Equal(t, s.client.Set(ctx, s.key, data, 0).Err(), nil)
		return rules, nil
	})
	assert.Equal(t, err, ErrConcurrentUpdate)
	assert.Equal(t, attempts, maxTxRetries)
}

func TestRedisStoreMutateKeepsFnError(t *testing.T) {
	_, s := newRedisStore(t)

	err := s.mutate(context.Background(), func(rules []models.PricingRule) ([]models.PricingRule, error) {
		return nil, ErrRuleNotFound
	})
	assert.Equal(t, err, ErrRuleNotFound)
}
