package models

import (
	"strings"
	"time"

	"github.com/dharmasatrya/skybound/internal/timezone"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "Economy"
	CabinPremiumEconomy CabinClass = "Premium Economy"
	CabinBusiness       CabinClass = "Business"
	CabinFirst          CabinClass = "First"
)

var cabinAliases = map[string]CabinClass{
	"economy":         CabinEconomy,
	"y":               CabinEconomy,
	"premium economy": CabinPremiumEconomy,
	"premium_economy": CabinPremiumEconomy,
	"premium-economy": CabinPremiumEconomy,
	"w":               CabinPremiumEconomy,
	"s":               CabinPremiumEconomy,
	"business":        CabinBusiness,
	"c":               CabinBusiness,
	"j":               CabinBusiness,
	"first":           CabinFirst,
	"f":               CabinFirst,
	"p":               CabinFirst,
}

// ParseCabinClass accepts display names as well as GDS cabin codes.
func ParseCabinClass(s string) (CabinClass, bool) {
	c, ok := cabinAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

func (c CabinClass) Valid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// GDSCode is the travelClass value used by the Amadeus search API.
func (c CabinClass) GDSCode() string {
	switch c {
	case CabinPremiumEconomy:
		return "PREMIUM_ECONOMY"
	case CabinBusiness:
		return "BUSINESS"
	case CabinFirst:
		return "FIRST"
	default:
		return "ECONOMY"
	}
}

type Provider string

const (
	ProviderAmadeus Provider = "Amadeus"
	ProviderSabre   Provider = "Sabre"
)

type FlightSegment struct {
	AirlineCode       string    `json:"airline_code"`
	AirlineName       string    `json:"airline_name"`
	FlightNumber      string    `json:"flight_number"`
	DepartureAirport  string    `json:"departure_airport"`
	DepartureTerminal *string   `json:"departure_terminal,omitempty"`
	ArrivalAirport    string    `json:"arrival_airport"`
	ArrivalTerminal   *string   `json:"arrival_terminal,omitempty"`
	DepartureTime     time.Time `json:"departure_time"`
	ArrivalTime       time.Time `json:"arrival_time"`
	DurationMinutes   int       `json:"duration_minutes"`
}

// LocalDeparture is the departure in the departure airport's zone. For
// airports outside the zone table it is the reading the adapter supplied.
func (s FlightSegment) LocalDeparture() time.Time {
	if loc, ok := timezone.LookupAirport(s.DepartureAirport); ok {
		return s.DepartureTime.In(loc)
	}
	return s.DepartureTime
}
