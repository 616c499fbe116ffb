package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/magiconair/properties/assert"

	"github.com/dharmasatrya/skybound/internal/models"
)

var day = time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

func priced(id string, provider models.Provider, flight string, dep time.Time, price float64) models.Offer {
	return models.Offer{
		ID:         id,
		Provider:   provider,
		FinalPrice: price,
		BasePrice:  price,
		Segments: []models.FlightSegment{{
			AirlineCode:   flight[:2],
			FlightNumber:  flight,
			DepartureTime: dep,
		}},
	}
}

func ids(g models.OfferGroup) []string {
	out := make([]string, 0, len(g.Offers))
	for _, o := range g.Offers {
		out = append(out, o.ID)
	}
	return out
}

func TestGroupSameFlightAcrossProviders(t *testing.T) {
	dep := day.Add(8 * time.Hour)
	groups := Group([]models.Offer{
		priced("AMA-1", models.ProviderAmadeus, "BR123", dep, 12500),
		priced("SAB-1", models.ProviderSabre, "BR123", dep, 11800),
	})

	assert.Equal(t, len(groups), 1)
	assert.Equal(t, ids(groups[0]), []string{"SAB-1", "AMA-1"})
	assert.Equal(t, groups[0].BestPrice(), 11800.0)
}

func TestGroupSeparatesByFlightAndDeparture(t *testing.T) {
	groups := Group([]models.Offer{
		priced("a", models.ProviderAmadeus, "BR123", day.Add(8*time.Hour), 100),
		priced("b", models.ProviderAmadeus, "BR123", day.Add(32*time.Hour), 100),
		priced("c", models.ProviderAmadeus, "BR125", day.Add(8*time.Hour), 100),
		priced("d", models.ProviderSabre, "CI123", day.Add(8*time.Hour), 100),
	})

	assert.Equal(t, len(groups), 4)
}

func TestGroupIsPartition(t *testing.T) {
	var offers []models.Offer
	for i := 0; i < 40; i++ {
		flight := fmt.Sprintf("BR%d", 100+i%7)
		provider := models.ProviderAmadeus
		if i%2 == 1 {
			provider = models.ProviderSabre
		}
		offers = append(offers, priced(fmt.Sprintf("o%d", i), provider, flight, day.Add(time.Duration(i%3)*time.Hour), float64(1000+(i*37)%500)))
	}

	groups := Group(offers)

	seen := map[string]int{}
	total := 0
	for _, g := range groups {
		for i, o := range g.Offers {
			seen[o.ID]++
			assert.Equal(t, o.GroupKey(), g.Key)
			if i > 0 {
				assert.Equal(t, g.Offers[i-1].FinalPrice <= o.FinalPrice, true)
			}
			assert.Equal(t, g.BestPrice() <= o.FinalPrice, true)
		}
		total += len(g.Offers)
	}

	assert.Equal(t, total, len(offers))
	for _, o := range offers {
		assert.Equal(t, seen[o.ID], 1)
	}
}

func TestGroupKeepsProviderOrderOnPriceTie(t *testing.T) {
	dep := day.Add(9 * time.Hour)
	groups := Group([]models.Offer{
		priced("AMA-1", models.ProviderAmadeus, "CI100", dep, 9000),
		priced("SAB-1", models.ProviderSabre, "CI100", dep, 9000),
	})

	assert.Equal(t, ids(groups[0]), []string{"AMA-1", "SAB-1"})
}

func sampleGroups() []models.OfferGroup {
	return Group([]models.Offer{
		priced("br-late", models.ProviderAmadeus, "BR200", day.Add(20*time.Hour), 9000),
		priced("ci-early", models.ProviderAmadeus, "CI100", day.Add(6*time.Hour), 15000),
		priced("br-mid", models.ProviderSabre, "BR300", day.Add(12*time.Hour), 9000),
		priced("jl-noon", models.ProviderSabre, "JL800", day.Add(11*time.Hour), 12000),
	})
}

func keys(groups []models.OfferGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Best().ID)
	}
	return out
}

func TestRankSortKeys(t *testing.T) {
	groups := sampleGroups()

	assert.Equal(t, keys(Rank(groups, models.SortPriceAsc, "")), []string{"br-late", "br-mid", "jl-noon", "ci-early"})
	assert.Equal(t, keys(Rank(groups, models.SortPriceDesc, "")), []string{"ci-early", "jl-noon", "br-late", "br-mid"})
	assert.Equal(t, keys(Rank(groups, models.SortTime, "")), []string{"ci-early", "jl-noon", "br-mid", "br-late"})
	assert.Equal(t, keys(Rank(groups, "", "")), []string{"br-late", "br-mid", "jl-noon", "ci-early"})

	assert.Equal(t, keys(groups), []string{"br-late", "ci-early", "br-mid", "jl-noon"})
}

func TestRankIsStableAcrossRuns(t *testing.T) {
	groups := sampleGroups()
	first := Rank(groups, models.SortPriceAsc, "ALL")
	for i := 0; i < 10; i++ {
		assert.Equal(t, Rank(groups, models.SortPriceAsc, "ALL"), first)
	}
}

func TestRankAirlineFilterKeepsWholeGroups(t *testing.T) {
	dep := day.Add(7 * time.Hour)
	groups := Group([]models.Offer{
		priced("AMA-1", models.ProviderAmadeus, "BR123", dep, 12500),
		priced("SAB-1", models.ProviderSabre, "BR123", dep, 11800),
		priced("AMA-2", models.ProviderAmadeus, "CI101", dep, 9000),
	})

	ranked := Rank(groups, models.SortPriceAsc, "br")
	assert.Equal(t, len(ranked), 1)
	assert.Equal(t, ids(ranked[0]), []string{"SAB-1", "AMA-1"})

	assert.Equal(t, len(Rank(groups, models.SortPriceAsc, "ALL")), 2)
	assert.Equal(t, len(Rank(groups, models.SortPriceAsc, "KE")), 0)
}

func TestMalformedOfferNeverGrouped(t *testing.T) {
	offers := []models.Offer{
		priced("ok", models.ProviderAmadeus, "BR123", day, 100),
		{ID: "broken", Provider: models.ProviderSabre, BasePrice: 100},
	}

	var valid []models.Offer
	for _, o := range offers {
		if o.Validate() == nil {
			valid = append(valid, o)
		}
	}

	groups := Rank(Group(valid), models.SortPriceAsc, "")
	assert.Equal(t, keys(groups), []string{"ok"})
}

func TestGroupAcrossProvidersAtAirportOutsideZoneTable(t *testing.T) {
	amadeus := priced("AMA-7", models.ProviderAmadeus, "EK653", time.Date(2026, 11, 2, 8, 30, 0, 0, time.UTC), 21000)
	amadeus.Segments[0].DepartureAirport = "MLE"
	sabre := priced("SAB-7", models.ProviderSabre, "EK653", time.Date(2026, 11, 2, 8, 30, 0, 0, time.FixedZone("", 5*60*60)), 20500)
	sabre.Segments[0].DepartureAirport = "MLE"
	early := priced("SAB-8", models.ProviderSabre, "UL102", time.Date(2026, 11, 2, 7, 0, 0, 0, time.FixedZone("", 5*60*60)), 9000)
	early.Segments[0].DepartureAirport = "MLE"

	groups := Group([]models.Offer{amadeus, sabre, early})
	assert.Equal(t, len(groups), 2)
	assert.Equal(t, ids(groups[0]), []string{"SAB-7", "AMA-7"})

	assert.Equal(t, keys(Rank(groups, models.SortTime, "")), []string{"SAB-8", "SAB-7"})
}
