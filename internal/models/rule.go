package models

import (
	"fmt"
	"strings"
)

// AllAirlines is the airline code of a rule that applies to every carrier.
const AllAirlines = "DEFAULT"

type MarkupType string

const (
	MarkupPercent MarkupType = "percent"
	MarkupFixed   MarkupType = "fixed"
)

type PricingRule struct {
	ID           string     `json:"id"`
	AirlineCode  string     `json:"airline_code"`
	CabinClass   CabinClass `json:"cabin_class"`
	MarkupAmount float64    `json:"markup_amount"`
	MarkupType   MarkupType `json:"markup_type"`
	Provider     Provider   `json:"provider,omitempty"`
}

func (r PricingRule) IsDefault() bool {
	return strings.EqualFold(r.AirlineCode, AllAirlines)
}

// Scoped reports whether the rule only applies to one provider.
func (r PricingRule) Scoped() bool {
	return r.Provider != ""
}

// Normalize upper-cases the airline code and maps cabin aliases to their
// display names.
func (r *PricingRule) Normalize() {
	r.AirlineCode = strings.ToUpper(strings.TrimSpace(r.AirlineCode))
	if c, ok := ParseCabinClass(string(r.CabinClass)); ok {
		r.CabinClass = c
	}
	if r.MarkupType == "" {
		r.MarkupType = MarkupPercent
	}
}

func (r PricingRule) Validate() error {
	if r.AirlineCode == "" {
		return ErrMissingAirlineCode
	}
	if !r.CabinClass.Valid() {
		return ErrInvalidCabinClass
	}
	if r.MarkupAmount < 0 {
		return ErrNegativeMarkup
	}
	if r.MarkupType != MarkupPercent && r.MarkupType != MarkupFixed {
		return fmt.Errorf("%w: %q", ErrInvalidMarkupType, r.MarkupType)
	}
	switch r.Provider {
	case "", ProviderAmadeus, ProviderSabre:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, r.Provider)
	}
	return nil
}

// DefaultPricingRules seeds an empty rule store.
func DefaultPricingRules() []PricingRule {
	return []PricingRule{
		{ID: "default", AirlineCode: AllAirlines, CabinClass: CabinEconomy, MarkupAmount: 500, MarkupType: MarkupFixed},
		{ID: "br_biz", AirlineCode: "BR", CabinClass: CabinBusiness, MarkupAmount: 10, MarkupType: MarkupPercent},
	}
}
