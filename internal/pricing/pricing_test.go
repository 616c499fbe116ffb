package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magiconair/properties/assert"

	"github.com/dharmasatrya/skybound/internal/models"
)

func rule(id, airline string, cabin models.CabinClass, amount float64, typ models.MarkupType, provider models.Provider) models.PricingRule {
	return models.PricingRule{
		ID:           id,
		AirlineCode:  airline,
		CabinClass:   cabin,
		MarkupAmount: amount,
		MarkupType:   typ,
		Provider:     provider,
	}
}

func offer(provider models.Provider, airline string, cabin models.CabinClass, base float64) models.Offer {
	return models.Offer{
		ID:         string(provider) + "-1",
		Provider:   provider,
		BasePrice:  base,
		CabinClass: cabin,
		Segments: []models.FlightSegment{{
			AirlineCode:   airline,
			FlightNumber:  airline + "123",
			DepartureTime: time.Date(2026, 11, 2, 1, 0, 0, 0, time.UTC),
		}},
	}
}

func TestResolvePrecedence(t *testing.T) {
	sabre := models.ProviderSabre
	rules := []models.PricingRule{
		rule("g-default", models.AllAirlines, models.CabinEconomy, 1, models.MarkupFixed, ""),
		rule("g-br", "BR", models.CabinFirst, 2, models.MarkupFixed, ""),
		rule("g-br-biz", "BR", models.CabinBusiness, 3, models.MarkupFixed, ""),
		rule("s-default", models.AllAirlines, models.CabinEconomy, 4, models.MarkupFixed, sabre),
		rule("s-br", "BR", models.CabinFirst, 5, models.MarkupFixed, sabre),
		rule("s-br-biz", "BR", models.CabinBusiness, 6, models.MarkupFixed, sabre),
	}

	tests := []struct {
		name     string
		rules    []models.PricingRule
		airline  string
		cabin    models.CabinClass
		provider models.Provider
		want     string
	}{
		{"provider airline and cabin", rules, "BR", models.CabinBusiness, sabre, "s-br-biz"},
		{"provider airline ignores cabin", rules, "BR", models.CabinEconomy, sabre, "s-br"},
		{"provider default", rules, "CI", models.CabinBusiness, sabre, "s-default"},
		{"general airline and cabin", rules, "BR", models.CabinBusiness, models.ProviderAmadeus, "g-br-biz"},
		{"general airline ignores cabin", rules, "BR", models.CabinPremiumEconomy, models.ProviderAmadeus, "g-br"},
		{"general default", rules, "JL", models.CabinFirst, models.ProviderAmadeus, "g-default"},
		{"case insensitive airline", rules, "br", models.CabinBusiness, sabre, "s-br-biz"},
		{"provider default outranks general airline", []models.PricingRule{rules[2], rules[3]}, "BR", models.CabinBusiness, sabre, "s-default"},
		{"first match wins inside a tier", []models.PricingRule{
			rule("first", "BR", models.CabinEconomy, 1, models.MarkupFixed, ""),
			rule("second", "BR", models.CabinEconomy, 2, models.MarkupFixed, ""),
		}, "BR", models.CabinEconomy, sabre, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.rules, tt.airline, tt.cabin, tt.provider)
			assert.Equal(t, err, nil)
			assert.Equal(t, got.ID, tt.want)
		})
	}
}

func TestResolveProviderDefaultBeatsGeneralDefault(t *testing.T) {
	rules := []models.PricingRule{
		rule("general", models.AllAirlines, models.CabinEconomy, 500, models.MarkupFixed, ""),
		rule("amadeus", models.AllAirlines, models.CabinEconomy, 300, models.MarkupFixed, models.ProviderAmadeus),
	}

	for _, airline := range []string{"BR", "CI", "JL", "CX"} {
		for _, cabin := range []models.CabinClass{models.CabinEconomy, models.CabinBusiness, models.CabinFirst} {
			got, err := Resolve(rules, airline, cabin, models.ProviderAmadeus)
			assert.Equal(t, err, nil)
			assert.Equal(t, got.ID, "amadeus")
		}
	}
}

func TestResolveNoRule(t *testing.T) {
	rules := []models.PricingRule{
		rule("s-br", "BR", models.CabinEconomy, 10, models.MarkupPercent, models.ProviderSabre),
	}

	_, err := Resolve(rules, "BR", models.CabinEconomy, models.ProviderAmadeus)
	assert.Equal(t, errors.Is(err, ErrNoApplicableRule), true)

	_, err = Resolve(nil, "BR", models.CabinEconomy, models.ProviderAmadeus)
	assert.Equal(t, errors.Is(err, ErrNoApplicableRule), true)
}

func TestComputeFinalPrice(t *testing.T) {
	percent := func(m float64) *models.PricingRule {
		r := rule("p", "BR", models.CabinEconomy, m, models.MarkupPercent, "")
		return &r
	}
	fixed := func(m float64) *models.PricingRule {
		r := rule("f", "BR", models.CabinEconomy, m, models.MarkupFixed, "")
		return &r
	}

	assert.Equal(t, ComputeFinalPrice(10000, percent(10)), 11000.0)
	assert.Equal(t, ComputeFinalPrice(10000, fixed(500)), 10500.0)
	assert.Equal(t, ComputeFinalPrice(10000, nil), 10000.0)
	assert.Equal(t, ComputeFinalPrice(0, percent(25)), 0.0)

	// 1005 * 1.05 = 1055.25, 1010 * 1.05 = 1060.5
	assert.Equal(t, ComputeFinalPrice(1005, percent(5)), 1055.0)
	assert.Equal(t, ComputeFinalPrice(1010, percent(5)), 1061.0)

	assert.Equal(t, ComputeFinalPrice(12345, percent(7.5)), ComputeFinalPrice(12345, percent(7.5)))
}

func TestComputeFinalPriceMonotonicInPercent(t *testing.T) {
	for _, base := range []float64{0, 1, 99, 1005, 10000, 123457} {
		prev := ComputeFinalPrice(base, &models.PricingRule{MarkupType: models.MarkupPercent})
		for m := 0.0; m <= 50; m += 0.25 {
			got := ComputeFinalPrice(base, &models.PricingRule{MarkupType: models.MarkupPercent, MarkupAmount: m})
			assert.Equal(t, got >= prev, true)
			prev = got
		}
	}
}

func TestRepriceScenarios(t *testing.T) {
	defaults := []models.PricingRule{
		rule("default", models.AllAirlines, models.CabinEconomy, 500, models.MarkupFixed, ""),
	}
	priced := Reprice([]models.Offer{offer(models.ProviderAmadeus, "CI", models.CabinEconomy, 10000)}, defaults)
	assert.Equal(t, priced[0].FinalPrice, 10500.0)
	assert.Equal(t, priced[0].AppliedRuleID, "default")

	rules := []models.PricingRule{
		rule("sabre-br", "BR", models.CabinEconomy, 10, models.MarkupPercent, models.ProviderSabre),
		rule("default", models.AllAirlines, models.CabinEconomy, 500, models.MarkupFixed, ""),
	}
	in := []models.Offer{
		offer(models.ProviderSabre, "BR", models.CabinEconomy, 10000),
		offer(models.ProviderAmadeus, "BR", models.CabinEconomy, 10000),
	}
	priced = Reprice(in, rules)
	assert.Equal(t, priced[0].FinalPrice, 11000.0)
	assert.Equal(t, priced[0].AppliedRuleID, "sabre-br")
	assert.Equal(t, priced[1].FinalPrice, 10500.0)
	assert.Equal(t, priced[1].AppliedRuleID, "default")

	assert.Equal(t, in[0].FinalPrice, 0.0)
}

func TestRepriceWithoutRulesPassesThrough(t *testing.T) {
	o := offer(models.ProviderSabre, "BR", models.CabinFirst, 45678)
	o.FinalPrice = 1
	o.AppliedRuleID = "stale"

	priced := Reprice([]models.Offer{o}, nil)
	assert.Equal(t, priced[0].FinalPrice, 45678.0)
	assert.Equal(t, priced[0].AppliedRuleID, "")
}

type stubSource struct {
	rules []models.PricingRule
	err   error
	calls int
}

func (s *stubSource) Rules(ctx context.Context) ([]models.PricingRule, error) {
	s.calls++
	return s.rules, s.err
}

func TestEngineRereadsRulesPerSearch(t *testing.T) {
	src := &stubSource{rules: []models.PricingRule{
		rule("default", models.AllAirlines, models.CabinEconomy, 500, models.MarkupFixed, ""),
	}}
	engine := NewEngine(src)
	offers := []models.Offer{offer(models.ProviderAmadeus, "BR", models.CabinEconomy, 10000)}

	assert.Equal(t, engine.Reprice(context.Background(), offers)[0].FinalPrice, 10500.0)

	src.rules = []models.PricingRule{
		rule("default", models.AllAirlines, models.CabinEconomy, 800, models.MarkupFixed, ""),
	}
	assert.Equal(t, engine.Reprice(context.Background(), offers)[0].FinalPrice, 10800.0)
	assert.Equal(t, src.calls, 2)
}

func TestEngineStoreFailureSellsAtBase(t *testing.T) {
	engine := NewEngine(&stubSource{err: errors.New("redis down")})
	offers := []models.Offer{offer(models.ProviderAmadeus, "BR", models.CabinEconomy, 10000)}

	assert.Equal(t, engine.Reprice(context.Background(), offers)[0].FinalPrice, 10000.0)
}
