package models

type SearchMetadata struct {
	TotalGroups        int      `json:"total_groups"`
	TotalOffers        int      `json:"total_offers"`
	ProvidersQueried   int      `json:"providers_queried"`
	ProvidersSucceeded int      `json:"providers_succeeded"`
	ProvidersFailed    int      `json:"providers_failed"`
	FailedProviders    []string `json:"failed_providers,omitempty"`
	DroppedOffers      int      `json:"dropped_offers,omitempty"`
	SearchTimeMs       int64    `json:"search_time_ms"`
	CacheHit           bool     `json:"cache_hit"`
}

type AirlineFacet struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type GroupView struct {
	OfferGroup
	BestPrice          float64 `json:"best_price"`
	BestPriceFormatted string  `json:"best_price_formatted"`
}

type SearchResponse struct {
	SearchCriteria SearchRequest  `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Airlines       []AirlineFacet `json:"airlines"`
	Groups         []GroupView    `json:"groups"`
}

type RoundTripResponse struct {
	SearchCriteria SearchRequest  `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Airlines       []AirlineFacet `json:"airlines"`
	OutboundGroups []GroupView    `json:"outbound_groups"`
	ReturnGroups   []GroupView    `json:"return_groups"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
