package rulestore

import (
	"context"
	"sync"

	"github.com/dharmasatrya/skybound/internal/models"
)

type MemoryStore struct {
	mu    sync.RWMutex
	rules []models.PricingRule
}

// NewMemoryStore starts with a copy of seed, usually
// models.DefaultPricingRules().
func NewMemoryStore(seed []models.PricingRule) *MemoryStore {
	return &MemoryStore{rules: clone(seed)}
}

func (s *MemoryStore) Rules(ctx context.Context) ([]models.PricingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.rules), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.PricingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.rules, id)
}

func (s *MemoryStore) Create(ctx context.Context, rule models.PricingRule) (models.PricingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, created, err := applyCreate(s.rules, rule)
	if err != nil {
		return models.PricingRule{}, err
	}
	s.rules = next
	return created, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, rule models.PricingRule) (models.PricingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, updated, err := applyUpdate(s.rules, id, rule)
	if err != nil {
		return models.PricingRule{}, err
	}
	s.rules = next
	return updated, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := applyDelete(s.rules, id)
	if err != nil {
		return err
	}
	s.rules = next
	return nil
}
