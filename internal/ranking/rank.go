package ranking

import (
	"sort"
	"strings"

	"github.com/dharmasatrya/skybound/internal/models"
)

// AllAirlines disables the airline filter, as does an empty code.
const AllAirlines = "ALL"

// Rank drops groups whose best offer is not flown by airline, then orders the
// rest by sortBy. Ties keep their input order. The input slice is not
// modified.
func Rank(groups []models.OfferGroup, sortBy models.SortKey, airline string) []models.OfferGroup {
	result := FilterAirline(groups, airline)

	switch sortBy {
	case models.SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].BestPrice() > result[j].BestPrice()
		})

	case models.SortTime:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].DepartureWallClock().Before(result[j].DepartureWallClock())
		})

	default:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].BestPrice() < result[j].BestPrice()
		})
	}

	return result
}

// FilterAirline keeps whole groups; a group is never split.
func FilterAirline(groups []models.OfferGroup, airline string) []models.OfferGroup {
	airline = strings.TrimSpace(airline)
	result := make([]models.OfferGroup, 0, len(groups))

	for _, g := range groups {
		if airline != "" && !strings.EqualFold(airline, AllAirlines) &&
			!strings.EqualFold(g.AirlineCode(), airline) {
			continue
		}
		result = append(result, g)
	}

	return result
}
