package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dharmasatrya/skybound/internal/timezone"
)

var ErrMalformedOffer = errors.New("malformed offer")

const wallClockLayout = "2006-01-02T15:04:05.999999999"

type Offer struct {
	ID               string          `json:"id"`
	Provider         Provider        `json:"provider"`
	Segments         []FlightSegment `json:"segments"`
	BasePrice        float64         `json:"base_price"`
	FinalPrice       float64         `json:"final_price"`
	Currency         string          `json:"currency"`
	CabinClass       CabinClass      `json:"cabin_class"`
	BaggageAllowance string          `json:"baggage_allowance"`
	AvailableSeats   *int            `json:"available_seats,omitempty"`
	AppliedRuleID    string          `json:"applied_rule_id,omitempty"`
}

// Validate reports offers an adapter should never have produced. Such offers
// are dropped before pricing and grouping.
func (o Offer) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedOffer)
	}
	if o.Provider == "" {
		return fmt.Errorf("%w: %s: missing provider", ErrMalformedOffer, o.ID)
	}
	if len(o.Segments) == 0 {
		return fmt.Errorf("%w: %s: no segments", ErrMalformedOffer, o.ID)
	}
	if o.BasePrice < 0 || math.IsNaN(o.BasePrice) || math.IsInf(o.BasePrice, 0) {
		return fmt.Errorf("%w: %s: invalid base price %v", ErrMalformedOffer, o.ID, o.BasePrice)
	}
	for i, s := range o.Segments {
		if s.AirlineCode == "" || s.FlightNumber == "" || s.DepartureTime.IsZero() {
			return fmt.Errorf("%w: %s: incomplete segment %d", ErrMalformedOffer, o.ID, i)
		}
	}
	return nil
}

func (o Offer) FirstSegment() FlightSegment {
	if len(o.Segments) == 0 {
		return FlightSegment{}
	}
	return o.Segments[0]
}

// AirlineCode is the carrier of the first segment, the one markup rules are
// matched against.
func (o Offer) AirlineCode() string {
	return o.FirstSegment().AirlineCode
}

func (o Offer) Departure() time.Time {
	return o.FirstSegment().DepartureTime
}

func (o Offer) Stops() int {
	if len(o.Segments) == 0 {
		return 0
	}
	return len(o.Segments) - 1
}

// DepartureWallClock is the local departure time of the first segment as
// read off the airport clock. Providers agree on it even when they disagree
// about the airport's UTC offset.
func (o Offer) DepartureWallClock() time.Time {
	return timezone.WallClock(o.FirstSegment().LocalDeparture())
}

// GroupKey identifies the physical flight an offer sells: carrier, flight
// number, departure airport and local departure time of the first segment.
func (o Offer) GroupKey() string {
	first := o.FirstSegment()
	return strings.ToUpper(first.AirlineCode) + "|" +
		strings.ToUpper(first.FlightNumber) + "|" +
		strings.ToUpper(first.DepartureAirport) + "|" +
		o.DepartureWallClock().Format(wallClockLayout)
}

// OfferGroup holds offers for the same physical flight, cheapest first.
type OfferGroup struct {
	Key    string  `json:"key"`
	Offers []Offer `json:"offers"`
}

func (g OfferGroup) Best() Offer {
	if len(g.Offers) == 0 {
		return Offer{}
	}
	return g.Offers[0]
}

func (g OfferGroup) BestPrice() float64 {
	return g.Best().FinalPrice
}

func (g OfferGroup) AirlineCode() string {
	return g.Best().AirlineCode()
}

func (g OfferGroup) Departure() time.Time {
	return g.Best().Departure()
}

func (g OfferGroup) DepartureWallClock() time.Time {
	return g.Best().DepartureWallClock()
}
