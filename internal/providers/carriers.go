package providers

import "strings"

// carrierNames covers the carriers the storefront sells most. Sabre's shop
// response carries codes only.
var carrierNames = map[string]string{
	"BR": "EVA Air",
	"CI": "China Airlines",
	"JX": "Starlux Airlines",
	"AE": "Mandarin Airlines",
	"B7": "Uni Air",
	"IT": "Tigerair Taiwan",
	"JL": "Japan Airlines",
	"NH": "All Nippon Airways",
	"MM": "Peach Aviation",
	"GK": "Jetstar Japan",
	"KE": "Korean Air",
	"OZ": "Asiana Airlines",
	"7C": "Jeju Air",
	"CX": "Cathay Pacific",
	"HX": "Hong Kong Airlines",
	"CA": "Air China",
	"MU": "China Eastern Airlines",
	"CZ": "China Southern Airlines",
	"SQ": "Singapore Airlines",
	"TR": "Scoot",
	"TG": "Thai Airways",
	"VN": "Vietnam Airlines",
	"VJ": "VietJet Air",
	"PR": "Philippine Airlines",
	"5J": "Cebu Pacific",
	"MH": "Malaysia Airlines",
	"AK": "AirAsia",
	"D7": "AirAsia X",
	"GA": "Garuda Indonesia",
	"EK": "Emirates",
	"EY": "Etihad Airways",
	"QR": "Qatar Airways",
	"TK": "Turkish Airlines",
	"UL": "SriLankan Airlines",
	"AI": "Air India",
	"UA": "United Airlines",
	"AA": "American Airlines",
	"DL": "Delta Air Lines",
	"AC": "Air Canada",
	"BA": "British Airways",
	"AF": "Air France",
	"KL": "KLM",
	"LH": "Lufthansa",
	"OS": "Austrian Airlines",
	"QF": "Qantas",
}

// carrierName resolves a carrier code to a display name, preferring the name
// a provider supplied over the table and the table over the bare code.
func carrierName(code, supplied string) string {
	if supplied != "" && !strings.EqualFold(supplied, code) {
		return supplied
	}
	if name, ok := carrierNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}
