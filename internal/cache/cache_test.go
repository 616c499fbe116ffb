package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/dharmasatrya/skybound/internal/models"
)

func baseParams() models.SearchParams {
	return models.SearchParams{
		TripType:      models.OneWay,
		Origin:        "TPE",
		Destination:   "NRT",
		DepartureDate: "2026-11-02",
		Adults:        1,
		CabinClass:    models.CabinEconomy,
	}
}

func TestGenerateKey(t *testing.T) {
	key := generateKey(baseParams())
	assert.Equal(t, strings.HasPrefix(key, keyPrefix), true)
	assert.Equal(t, generateKey(baseParams()), key)

	tests := []struct {
		name   string
		mutate func(p *models.SearchParams)
	}{
		{"destination", func(p *models.SearchParams) { p.Destination = "KIX" }},
		{"date", func(p *models.SearchParams) { p.DepartureDate = "2026-11-03" }},
		{"adults", func(p *models.SearchParams) { p.Adults = 2 }},
		{"infants", func(p *models.SearchParams) { p.Infants = 1 }},
		{"cabin", func(p *models.SearchParams) { p.CabinClass = models.CabinBusiness }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			assert.Equal(t, generateKey(p) != key, true)
		})
	}
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	assert.Equal(t, c.Set(context.Background(), baseParams(), Entry{Offers: []models.Offer{{ID: "AMA-1"}}}), nil)

	entry, ok := c.Get(context.Background(), baseParams())
	assert.Equal(t, ok, false)
	assert.Equal(t, entry == nil, true)
	assert.Equal(t, c.Close(), nil)
}
