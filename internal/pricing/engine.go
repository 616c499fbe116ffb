package pricing

import (
	"context"
	"log"

	"github.com/dharmasatrya/skybound/internal/models"
)

// RuleSource hands out the current, ordered rule snapshot. The engine never
// writes to it.
type RuleSource interface {
	Rules(ctx context.Context) ([]models.PricingRule, error)
}

type Engine struct {
	source RuleSource
}

func NewEngine(source RuleSource) *Engine {
	return &Engine{source: source}
}

// Snapshot reads the rules once for a search. A store failure is logged and
// yields an empty snapshot, so offers are sold at their base price.
func (e *Engine) Snapshot(ctx context.Context) []models.PricingRule {
	if e == nil || e.source == nil {
		return nil
	}
	rules, err := e.source.Rules(ctx)
	if err != nil {
		log.Printf("Pricing rules unavailable, selling at base price: %v", err)
		return nil
	}
	return rules
}

func (e *Engine) Reprice(ctx context.Context, offers []models.Offer) []models.Offer {
	return Reprice(offers, e.Snapshot(ctx))
}

// Reprice returns a copy of offers with FinalPrice and AppliedRuleID set from
// the rule snapshot. The input slice is left untouched.
func Reprice(offers []models.Offer, rules []models.PricingRule) []models.Offer {
	priced := make([]models.Offer, len(offers))
	for i, o := range offers {
		priced[i] = PriceOffer(o, rules)
	}
	return priced
}

func PriceOffer(o models.Offer, rules []models.PricingRule) models.Offer {
	o.AppliedRuleID = ""

	rule, err := Resolve(rules, o.AirlineCode(), o.CabinClass, o.Provider)
	if err != nil {
		o.FinalPrice = ComputeFinalPrice(o.BasePrice, nil)
		return o
	}

	o.FinalPrice = ComputeFinalPrice(o.BasePrice, &rule)
	o.AppliedRuleID = rule.ID
	return o
}
