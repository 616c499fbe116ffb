// Package ranking clusters priced offers into physical flights and orders
// the clusters for display.
package ranking

import (
	"sort"

	"github.com/dharmasatrya/skybound/internal/models"
)

// Group merges offers for the same physical flight regardless of provider or
// price. Groups keep the order in which their first offer was seen; offers
// inside a group are sorted cheapest first.
func Group(offers []models.Offer) []models.OfferGroup {
	index := make(map[string]int, len(offers))
	groups := make([]models.OfferGroup, 0, len(offers))

	for _, o := range offers {
		key := o.GroupKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.OfferGroup{Key: key})
		}
		groups[i].Offers = append(groups[i].Offers, o)
	}

	for i := range groups {
		offers := groups[i].Offers
		sort.SliceStable(offers, func(a, b int) bool {
			return offers[a].FinalPrice < offers[b].FinalPrice
		})
	}

	return groups
}
