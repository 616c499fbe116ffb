// Package pricing turns provider base prices into sell prices using the
// markup rules configured by an administrator.
package pricing

import (
	"errors"
	"strings"

	"github.com/dharmasatrya/skybound/internal/models"
)

// ErrNoApplicableRule means no rule covers the offer; its base price is sold
// as is.
var ErrNoApplicableRule = errors.New("no applicable pricing rule")

// Resolve selects the markup rule for an offer. Rules scoped to the offer's
// provider are tried before unscoped ones, and within each scope the order is
// airline+cabin, then airline alone, then the DEFAULT rule. Inside a tier the
// first rule in snapshot order wins.
func Resolve(rules []models.PricingRule, airlineCode string, cabin models.CabinClass, provider models.Provider) (models.PricingRule, error) {
	if provider != "" {
		if r, ok := resolveInScope(rules, airlineCode, cabin, func(r models.PricingRule) bool {
			return r.Provider == provider
		}); ok {
			return r, nil
		}
	}

	if r, ok := resolveInScope(rules, airlineCode, cabin, func(r models.PricingRule) bool {
		return !r.Scoped()
	}); ok {
		return r, nil
	}

	return models.PricingRule{}, ErrNoApplicableRule
}

func resolveInScope(rules []models.PricingRule, airlineCode string, cabin models.CabinClass, inScope func(models.PricingRule) bool) (models.PricingRule, bool) {
	tiers := []func(models.PricingRule) bool{
		func(r models.PricingRule) bool {
			return sameAirline(r, airlineCode) && r.CabinClass == cabin
		},
		// airline alone, whatever cabin the rule names
		func(r models.PricingRule) bool {
			return sameAirline(r, airlineCode)
		},
		func(r models.PricingRule) bool {
			return r.IsDefault()
		},
	}

	for _, match := range tiers {
		for _, r := range rules {
			if inScope(r) && match(r) {
				return r, true
			}
		}
	}
	return models.PricingRule{}, false
}

func sameAirline(r models.PricingRule, airlineCode string) bool {
	return airlineCode != "" && strings.EqualFold(r.AirlineCode, airlineCode)
}
