// Package rulestore persists the ordered list of markup rules. Rule order is
// significant: the resolver picks the first match within a tier.
package rulestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dharmasatrya/skybound/internal/models"
)

var (
	ErrRuleNotFound = errors.New("pricing rule not found")
	ErrRuleExists   = errors.New("pricing rule already exists")
)

// Store is the admin side of the rules. Rules also satisfies
// pricing.RuleSource.
type Store interface {
	Rules(ctx context.Context) ([]models.PricingRule, error)
	Get(ctx context.Context, id string) (models.PricingRule, error)
	Create(ctx context.Context, rule models.PricingRule) (models.PricingRule, error)
	Update(ctx context.Context, id string, rule models.PricingRule) (models.PricingRule, error)
	Delete(ctx context.Context, id string) error
}

func prepare(rule models.PricingRule) (models.PricingRule, error) {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return models.PricingRule{}, err
	}
	return rule, nil
}

func indexOf(rules []models.PricingRule, id string) int {
	for i, r := range rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func find(rules []models.PricingRule, id string) (models.PricingRule, error) {
	i := indexOf(rules, id)
	if i < 0 {
		return models.PricingRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return rules[i], nil
}

// The apply helpers never modify their input; snapshots already handed to a
// running search stay as they were.

func applyCreate(rules []models.PricingRule, rule models.PricingRule) ([]models.PricingRule, models.PricingRule, error) {
	rule, err := prepare(rule)
	if err != nil {
		return nil, models.PricingRule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if indexOf(rules, rule.ID) >= 0 {
		return nil, models.PricingRule{}, fmt.Errorf("%w: %s", ErrRuleExists, rule.ID)
	}

	next := make([]models.PricingRule, 0, len(rules)+1)
	next = append(next, rules...)
	return append(next, rule), rule, nil
}

func applyUpdate(rules []models.PricingRule, id string, rule models.PricingRule) ([]models.PricingRule, models.PricingRule, error) {
	i := indexOf(rules, id)
	if i < 0 {
		return nil, models.PricingRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	rule.ID = id
	rule, err := prepare(rule)
	if err != nil {
		return nil, models.PricingRule{}, err
	}

	next := clone(rules)
	next[i] = rule
	return next, rule, nil
}

func applyDelete(rules []models.PricingRule, id string) ([]models.PricingRule, error) {
	i := indexOf(rules, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	next := make([]models.PricingRule, 0, len(rules)-1)
	next = append(next, rules[:i]...)
	return append(next, rules[i+1:]...), nil
}

func clone(rules []models.PricingRule) []models.PricingRule {
	out := make([]models.PricingRule, len(rules))
	copy(out, rules)
	return out
}
