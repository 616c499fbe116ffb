// Package timezone turns the local wall-clock times GDS APIs return into
// absolute instants, so offers from different providers compare correctly.
package timezone

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

var airportZones = map[string]string{
	// Taiwan
	"TPE": "Asia/Taipei", // Taoyuan
	"TSA": "Asia/Taipei", // Songshan
	"KHH": "Asia/Taipei", // Kaohsiung
	"RMQ": "Asia/Taipei", // Taichung
	"TNN": "Asia/Taipei", // Tainan

	// North-east Asia
	"NRT": "Asia/Tokyo", // Tokyo Narita
	"HND": "Asia/Tokyo", // Tokyo Haneda
	"KIX": "Asia/Tokyo", // Osaka Kansai
	"FUK": "Asia/Tokyo", // Fukuoka
	"CTS": "Asia/Tokyo", // Sapporo New Chitose
	"OKA": "Asia/Tokyo", // Okinawa Naha
	"ICN": "Asia/Seoul", // Seoul Incheon
	"GMP": "Asia/Seoul", // Seoul Gimpo
	"PUS": "Asia/Seoul", // Busan Gimhae
	"HKG": "Asia/Hong_Kong",
	"MFM": "Asia/Macau",
	"PVG": "Asia/Shanghai", // Shanghai Pudong
	"PEK": "Asia/Shanghai", // Beijing Capital

	// South-east Asia
	"BKK": "Asia/Bangkok", // Bangkok Suvarnabhumi
	"DMK": "Asia/Bangkok", // Bangkok Don Mueang
	"SIN": "Asia/Singapore",
	"KUL": "Asia/Kuala_Lumpur",
	"MNL": "Asia/Manila",
	"SGN": "Asia/Ho_Chi_Minh",
	"HAN": "Asia/Bangkok", // Hanoi, UTC+7 without DST
	"CGK": "Asia/Jakarta",
	"DPS": "Asia/Makassar", // Bali

	// Middle East and South Asia
	"DXB": "Asia/Dubai",
	"AUH": "Asia/Dubai",
	"DOH": "Asia/Qatar",
	"IST": "Europe/Istanbul",
	"DEL": "Asia/Kolkata",
	"BOM": "Asia/Kolkata",

	// Long haul
	"LAX": "America/Los_Angeles",
	"SFO": "America/Los_Angeles",
	"SEA": "America/Los_Angeles",
	"YVR": "America/Vancouver",
	"JFK": "America/New_York",
	"LHR": "Europe/London",
	"CDG": "Europe/Paris",
	"AMS": "Europe/Amsterdam",
	"FRA": "Europe/Berlin",
	"VIE": "Europe/Vienna",
	"SYD": "Australia/Sydney",
	"BNE": "Australia/Brisbane",
}

var (
	locMu     sync.RWMutex
	locations = map[string]*time.Location{}
)

// LookupAirport returns the zone of an airport in the table.
func LookupAirport(code string) (*time.Location, bool) {
	tz, ok := airportZones[strings.ToUpper(code)]
	if !ok {
		return nil, false
	}
	return GetLocationByName(tz), true
}

// GetTimezoneByAirport returns the IANA zone name of an airport, or "UTC"
// when the airport is unknown.
func GetTimezoneByAirport(code string) string {
	if tz, ok := airportZones[strings.ToUpper(code)]; ok {
		return tz
	}
	return "UTC"
}

func GetLocationByName(name string) *time.Location {
	locMu.RLock()
	loc, ok := locations[name]
	locMu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}

	locMu.Lock()
	locations[name] = loc
	locMu.Unlock()
	return loc
}

// ParseTimeWithOffset parses timestamps that carry their own UTC offset.
// Timestamps without one are read in the zone named by tzName, if any.
func ParseTimeWithOffset(timeStr string, tzName string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700", // Without colon
		"2006-01-02T15:04-07:00",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t, nil
		}
	}

	if tzName != "" {
		loc := GetLocationByName(tzName)
		simpleFormats := []string{
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02T15:04",
			"2006-01-02 15:04",
		}
		for _, format := range simpleFormats {
			if t, err := time.ParseInLocation(format, timeStr, loc); err == nil {
				return t, nil
			}
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

// ParseAirportTime reads a local departure or arrival time at airport.
// A timestamp with an offset keeps it unless the airport is in the table, in
// which case it is shown in the airport's zone. A timestamp without one is
// read in the airport's zone, or as a UTC wall clock for unknown airports;
// the wall-clock reading is what stays correct in that case.
func ParseAirportTime(timeStr, airport string) (time.Time, error) {
	loc, known := LookupAirport(airport)
	tzName := "UTC"
	if known {
		tzName = loc.String()
	}

	t, err := ParseTimeWithOffset(timeStr, tzName)
	if err != nil {
		return time.Time{}, err
	}
	if known {
		return t.In(loc), nil
	}
	return t, nil
}

// WithOffsetFrom re-labels the wall clock of local with the UTC offset that
// makes it equal to instant. It is used when only the other end of a segment
// has a known zone. Offsets are rounded to 15 minutes; an impossible offset
// leaves local unchanged.
func WithOffsetFrom(local, instant time.Time) time.Time {
	wall := WallClock(local)
	offset := wall.Sub(instant.UTC()).Round(15 * time.Minute)
	if offset < -12*time.Hour || offset > 14*time.Hour {
		return local
	}
	zone := time.FixedZone("", int(offset/time.Second))
	return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), zone)
}

// WallClock drops the zone of t and keeps its local reading, expressed as
// UTC so readings from different zones compare by the clock on the wall.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
