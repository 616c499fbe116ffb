package filter

import (
	"sort"
	"strings"

	"github.com/dharmasatrya/skybound/internal/models"
)

// Apply keeps the groups whose best offer satisfies filters. Like the airline
// filter, it decides per group and never splits one.
func Apply(groups []models.OfferGroup, filters *models.SearchFilters) []models.OfferGroup {
	if filters == nil {
		return groups
	}

	result := make([]models.OfferGroup, 0, len(groups))

	for _, g := range groups {
		if matchesFilters(g.Best(), filters) {
			result = append(result, g)
		}
	}

	return result
}

func matchesFilters(best models.Offer, filters *models.SearchFilters) bool {
	if filters.PriceMin != nil && best.FinalPrice < *filters.PriceMin {
		return false
	}
	if filters.PriceMax != nil && best.FinalPrice > *filters.PriceMax {
		return false
	}

	if filters.MaxStops != nil && best.Stops() > *filters.MaxStops {
		return false
	}

	return true
}

// Airlines lists the distinct carriers of the groups' best offers, sorted by
// code, for an airline picker. A name that is only the code gives way to a
// fuller one from any offer of the same carrier.
func Airlines(groups []models.OfferGroup) []models.AirlineFacet {
	index := make(map[string]int)
	facets := make([]models.AirlineFacet, 0)

	for _, g := range groups {
		code := strings.ToUpper(g.Best().FirstSegment().AirlineCode)
		if code == "" {
			continue
		}
		i, ok := index[code]
		if !ok {
			i = len(facets)
			index[code] = i
			facets = append(facets, models.AirlineFacet{Code: code, Name: code})
		}
		if facets[i].Name != code {
			continue
		}
		for _, o := range g.Offers {
			first := o.FirstSegment()
			if strings.EqualFold(first.AirlineCode, code) && first.AirlineName != "" && !strings.EqualFold(first.AirlineName, code) {
				facets[i].Name = first.AirlineName
				break
			}
		}
	}

	sort.Slice(facets, func(i, j int) bool {
		return facets[i].Code < facets[j].Code
	})

	return facets
}
