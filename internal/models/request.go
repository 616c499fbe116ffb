package models

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type TripType string

const (
	OneWay    TripType = "one-way"
	RoundTrip TripType = "round-trip"
)

type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortTime      SortKey = "time"
)

type SearchFilters struct {
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	MaxStops *int     `json:"max_stops,omitempty"`
}

type SearchParams struct {
	TripType      TripType   `json:"trip_type"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate string     `json:"departure_date"`
	ReturnDate    *string    `json:"return_date,omitempty"`
	Adults        int        `json:"adults"`
	Children      int        `json:"children"`
	Infants       int        `json:"infants"`
	CabinClass    CabinClass `json:"cabin_class"`
}

// Validate normalizes the params in place and rejects impossible searches.
func (p *SearchParams) Validate() error {
	p.Origin = strings.ToUpper(strings.TrimSpace(p.Origin))
	p.Destination = strings.ToUpper(strings.TrimSpace(p.Destination))

	if p.Origin == "" {
		return ErrMissingOrigin
	}
	if p.Destination == "" {
		return ErrMissingDestination
	}
	if p.Origin == p.Destination {
		return ErrSameOriginDestination
	}
	if p.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	departure, err := time.Parse(dateLayout, p.DepartureDate)
	if err != nil {
		return ErrInvalidDate
	}

	if p.Adults == 0 {
		p.Adults = 1
	}
	if p.Adults < 0 || p.Children < 0 || p.Infants < 0 {
		return ErrNegativePassengers
	}
	if p.Infants > p.Adults {
		return ErrTooManyInfants
	}

	if p.CabinClass == "" {
		p.CabinClass = CabinEconomy
	}
	cabin, ok := ParseCabinClass(string(p.CabinClass))
	if !ok {
		return ErrInvalidCabinClass
	}
	p.CabinClass = cabin

	if p.ReturnDate != nil && *p.ReturnDate == "" {
		p.ReturnDate = nil
	}
	if p.TripType == "" {
		p.TripType = OneWay
		if p.ReturnDate != nil {
			p.TripType = RoundTrip
		}
	}

	switch p.TripType {
	case OneWay:
		p.ReturnDate = nil
	case RoundTrip:
		if p.ReturnDate == nil {
			return ErrMissingReturnDate
		}
		ret, err := time.Parse(dateLayout, *p.ReturnDate)
		if err != nil {
			return ErrInvalidDate
		}
		if ret.Before(departure) {
			return ErrReturnBeforeDeparture
		}
	default:
		return ErrInvalidTripType
	}

	return nil
}

// ReturnLeg is the one-way search for the inbound half of a round trip.
func (p SearchParams) ReturnLeg() SearchParams {
	leg := p
	leg.TripType = OneWay
	leg.Origin = p.Destination
	leg.Destination = p.Origin
	if p.ReturnDate != nil {
		leg.DepartureDate = *p.ReturnDate
	}
	leg.ReturnDate = nil
	return leg
}

type SearchRequest struct {
	SearchParams
	SortBy  SortKey        `json:"sort_by,omitempty"`
	Airline string         `json:"airline,omitempty"`
	Filters *SearchFilters `json:"filters,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if err := r.SearchParams.Validate(); err != nil {
		return err
	}
	switch r.SortBy {
	case SortPriceAsc, SortPriceDesc, SortTime:
	case "":
		r.SortBy = SortPriceAsc
	default:
		return ErrInvalidSortKey
	}
	r.Airline = strings.ToUpper(strings.TrimSpace(r.Airline))
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrSameOriginDestination ValidationError = "origin and destination must differ"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrMissingReturnDate     ValidationError = "return_date is required for round-trip"
	ErrInvalidDate           ValidationError = "dates must use YYYY-MM-DD"
	ErrReturnBeforeDeparture ValidationError = "return_date must not be before departure_date"
	ErrNegativePassengers    ValidationError = "passenger counts must not be negative"
	ErrTooManyInfants        ValidationError = "each infant must travel with an adult"
	ErrInvalidCabinClass     ValidationError = "cabin_class must be Economy, Premium Economy, Business or First"
	ErrInvalidTripType       ValidationError = "trip_type must be one-way or round-trip"
	ErrInvalidSortKey        ValidationError = "sort_by must be price-asc, price-desc or time"
	ErrMissingAirlineCode    ValidationError = "airline_code is required"
	ErrNegativeMarkup        ValidationError = "markup_amount must not be negative"
	ErrInvalidMarkupType     ValidationError = "markup_type must be percent or fixed"
	ErrUnknownProvider       ValidationError = "provider must be Amadeus, Sabre or empty"
)
