package pricing

import (
	"math"

	"github.com/dharmasatrya/skybound/internal/models"
)

// ComputeFinalPrice applies rule to basePrice. Percentage markups are rounded
// half-up to a whole settlement-currency unit; fixed markups are added as is.
// A nil rule leaves the base price untouched.
func ComputeFinalPrice(basePrice float64, rule *models.PricingRule) float64 {
	if rule == nil {
		return basePrice
	}

	switch rule.MarkupType {
	case models.MarkupPercent:
		return roundHalfUp(basePrice * (1 + rule.MarkupAmount/100))
	case models.MarkupFixed:
		return basePrice + rule.MarkupAmount
	default:
		return basePrice
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
