package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/timezone"
)

const DefaultSabreBaseURL = "https://api.test.sabre.com"

type sabreTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type sabreResponse struct {
	GroupedItineraryResponse *sabreGrouped `json:"groupedItineraryResponse"`
}

type sabreGrouped struct {
	ScheduleDescs         []sabreSchedule  `json:"scheduleDescs"`
	LegDescs              []sabreLeg       `json:"legDescs"`
	BaggageAllowanceDescs []sabreBaggage   `json:"baggageAllowanceDescs"`
	ItineraryGroups       []sabreItinGroup `json:"itineraryGroups"`
}

type sabreSchedule struct {
	ID          int           `json:"id"`
	ElapsedTime int           `json:"elapsedTime"`
	Departure   sabreEndpoint `json:"departure"`
	Arrival     sabreEndpoint `json:"arrival"`
	Carrier     sabreCarrier  `json:"carrier"`
}

type sabreEndpoint struct {
	Airport        string `json:"airport"`
	Terminal       string `json:"terminal"`
	Time           string `json:"time"`
	DateAdjustment int    `json:"dateAdjustment"`
}

type sabreCarrier struct {
	Marketing             string `json:"marketing"`
	MarketingFlightNumber int    `json:"marketingFlightNumber"`
	Operating             string `json:"operating"`
}

type sabreLeg struct {
	ID          int                `json:"id"`
	ElapsedTime int                `json:"elapsedTime"`
	Schedules   []sabreScheduleRef `json:"schedules"`
}

type sabreScheduleRef struct {
	Ref                     int `json:"ref"`
	DepartureDateAdjustment int `json:"departureDateAdjustment"`
}

type sabreBaggage struct {
	ID         int    `json:"id"`
	PieceCount int    `json:"pieceCount"`
	Weight     int    `json:"weight"`
	Unit       string `json:"unit"`
}

type sabreItinGroup struct {
	GroupDescription struct {
		LegDescriptions []struct {
			DepartureDate string `json:"departureDate"`
		} `json:"legDescriptions"`
	} `json:"groupDescription"`
	Itineraries []sabreItinerary `json:"itineraries"`
}

type sabreItinerary struct {
	ID                 int            `json:"id"`
	Legs               []sabreLegRef  `json:"legs"`
	PricingInformation []sabrePricing `json:"pricingInformation"`
}

type sabreLegRef struct {
	Ref int `json:"ref"`
}

type sabrePricing struct {
	Fare struct {
		TotalFare struct {
			TotalPrice         float64 `json:"totalPrice"`
			Currency           string  `json:"currency"`
			BaseFareAmount     float64 `json:"baseFareAmount"`
			BaseFareCurrency   string  `json:"baseFareCurrency"`
			EquivalentAmount   float64 `json:"equivalentAmount"`
			EquivalentCurrency string  `json:"equivalentCurrency"`
		} `json:"totalFare"`
		PassengerInfoList []struct {
			PassengerInfo struct {
				FareComponents []struct {
					Segments []struct {
						Segment struct {
							CabinCode      string `json:"cabinCode"`
							SeatsAvailable *int   `json:"seatsAvailable"`
						} `json:"segment"`
					} `json:"segments"`
				} `json:"fareComponents"`
				BaggageInformation []struct {
					Allowance struct {
						Ref int `json:"ref"`
					} `json:"allowance"`
				} `json:"baggageInformation"`
			} `json:"passengerInfo"`
		} `json:"passengerInfoList"`
	} `json:"fare"`
}

type SabreConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	AccessToken    string
	PseudoCityCode string
	Currency       string
	HTTPClient     *http.Client
}

type SabreProvider struct {
	config SabreConfig
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewSabreProvider talks to Sabre directly or through a bridge when BaseURL
// points at one. A static AccessToken skips the token exchange.
func NewSabreProvider(config SabreConfig) *SabreProvider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultSabreBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Currency == "" {
		config.Currency = "TWD"
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SabreProvider{config: config, client: client}
}

func (p *SabreProvider) Name() models.Provider {
	return models.ProviderSabre
}

func requestID() string {
	return "SABRE-" + uuid.NewString()
}

func (p *SabreProvider) Search(ctx context.Context, params models.SearchParams) ([]models.Offer, error) {
	resp, err := p.searchOnce(ctx, params)
	if errors.Is(err, ErrUnauthorized) && p.config.AccessToken == "" {
		p.invalidateToken()
		resp, err = p.searchOnce(ctx, params)
	}
	if err != nil {
		return nil, err
	}
	if resp.GroupedItineraryResponse == nil {
		return []models.Offer{}, nil
	}

	return p.normalize(resp.GroupedItineraryResponse, params), nil
}

func (p *SabreProvider) searchOnce(ctx context.Context, params models.SearchParams) (*sabreResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.buildRequest(params))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v4/shop/flights?mode=live", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID())

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if res.StatusCode != http.StatusOK {
		return nil, statusError("search", res)
	}

	var resp sabreResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

func (p *SabreProvider) buildRequest(params models.SearchParams) map[string]any {
	passengers := []map[string]any{{"Code": "ADT", "Quantity": params.Adults}}
	if params.Children > 0 {
		passengers = append(passengers, map[string]any{"Code": "CNN", "Quantity": params.Children})
	}
	if params.Infants > 0 {
		passengers = append(passengers, map[string]any{"Code": "INF", "Quantity": params.Infants})
	}

	return map[string]any{
		"OTA_AirLowFareSearchRQ": map[string]any{
			"Version": "4",
			"POS": map[string]any{
				"Source": []map[string]any{{
					"PseudoCityCode": p.config.PseudoCityCode,
					"RequestorID": map[string]any{
						"Type":        "1",
						"ID":          "1",
						"CompanyName": map[string]any{"Code": "TN"},
					},
				}},
			},
			"OriginDestinationInformation": []map[string]any{{
				"RPH":                 "1",
				"DepartureDateTime":   params.DepartureDate + "T00:00:00",
				"OriginLocation":      map[string]any{"LocationCode": params.Origin},
				"DestinationLocation": map[string]any{"LocationCode": params.Destination},
			}},
			"TravelPreferences": map[string]any{
				"CabinPref": []map[string]any{{"Cabin": sabreCabinCode(params.CabinClass), "PreferLevel": "Preferred"}},
			},
			"TravelerInfoSummary": map[string]any{
				"PriceRequestInformation": map[string]any{"CurrencyCode": p.config.Currency},
				"AirTravelerAvail": []map[string]any{{
					"PassengerTypeQuantity": passengers,
				}},
			},
			"TPA_Extensions": map[string]any{
				"IntelliSellTransaction": map[string]any{
					"RequestType": map[string]any{"Name": "50ITINS"},
				},
			},
		},
	}
}

func (p *SabreProvider) getToken(ctx context.Context) (string, error) {
	if p.config.AccessToken != "" {
		return p.config.AccessToken, nil
	}
	if p.config.ClientID == "" || p.config.ClientSecret == "" {
		return "", ErrMissingCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	// Sabre expects base64(base64(clientID):base64(secret)).
	enc := base64.StdEncoding
	credentials := enc.EncodeToString([]byte(
		enc.EncodeToString([]byte(p.config.ClientID)) + ":" + enc.EncodeToString([]byte(p.config.ClientSecret)),
	))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v2/auth/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", requestID())

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", statusError("token", res)
	}

	var tok sabreTokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response: %w", ErrUnauthorized)
	}

	p.token = tok.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}

func (p *SabreProvider) invalidateToken() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

func (p *SabreProvider) normalize(g *sabreGrouped, params models.SearchParams) []models.Offer {
	schedules := make(map[int]sabreSchedule, len(g.ScheduleDescs))
	for _, s := range g.ScheduleDescs {
		schedules[s.ID] = s
	}
	legs := make(map[int]sabreLeg, len(g.LegDescs))
	for _, l := range g.LegDescs {
		legs[l.ID] = l
	}
	baggages := make(map[int]sabreBaggage, len(g.BaggageAllowanceDescs))
	for _, b := range g.BaggageAllowanceDescs {
		baggages[b.ID] = b
	}

	var results []models.Offer
	for _, group := range g.ItineraryGroups {
		if len(group.GroupDescription.LegDescriptions) == 0 {
			continue
		}
		departureDate := group.GroupDescription.LegDescriptions[0].DepartureDate

		for _, itin := range group.Itineraries {
			if len(itin.Legs) == 0 || len(itin.PricingInformation) == 0 {
				continue
			}
			leg, ok := legs[itin.Legs[0].Ref]
			if !ok {
				continue
			}

			segments, err := p.buildSegments(leg, schedules, departureDate)
			if err != nil {
				continue
			}

			pricing := itin.PricingInformation[0]
			base, ok := p.basePrice(pricing)
			if !ok {
				continue
			}

			cabin := params.CabinClass
			baggage := "23KG"
			var seats *int
			if len(pricing.Fare.PassengerInfoList) > 0 {
				info := pricing.Fare.PassengerInfoList[0].PassengerInfo
				if len(info.FareComponents) > 0 && len(info.FareComponents[0].Segments) > 0 {
					seg := info.FareComponents[0].Segments[0].Segment
					if c, ok := models.ParseCabinClass(seg.CabinCode); ok {
						cabin = c
					}
					seats = seg.SeatsAvailable
				}
				if len(info.BaggageInformation) > 0 {
					if b, ok := baggages[info.BaggageInformation[0].Allowance.Ref]; ok {
						baggage = formatSabreBaggage(b, baggage)
					}
				}
			}

			results = append(results, models.Offer{
				ID:               "SAB-" + strconv.Itoa(itin.ID),
				Provider:         p.Name(),
				Segments:         segments,
				BasePrice:        base,
				Currency:         strings.ToUpper(p.config.Currency),
				CabinClass:       cabin,
				BaggageAllowance: baggage,
				AvailableSeats:   seats,
			})
		}
	}

	return results
}

func (p *SabreProvider) buildSegments(leg sabreLeg, schedules map[int]sabreSchedule, departureDate string) ([]models.FlightSegment, error) {
	date, err := time.Parse("2006-01-02", departureDate)
	if err != nil {
		return nil, err
	}

	segments := make([]models.FlightSegment, 0, len(leg.Schedules))
	for _, ref := range leg.Schedules {
		s, ok := schedules[ref.Ref]
		if !ok {
			return nil, fmt.Errorf("%w: unknown schedule %d", models.ErrMalformedOffer, ref.Ref)
		}

		depDate := date.AddDate(0, 0, ref.DepartureDateAdjustment)
		arrDate := depDate.AddDate(0, 0, s.Arrival.DateAdjustment)

		depTime, err := timezone.ParseAirportTime(depDate.Format("2006-01-02")+"T"+s.Departure.Time, s.Departure.Airport)
		if err != nil {
			return nil, err
		}
		arrTime, err := timezone.ParseAirportTime(arrDate.Format("2006-01-02")+"T"+s.Arrival.Time, s.Arrival.Airport)
		if err != nil {
			return nil, err
		}

		flightNumber := s.Carrier.Marketing + strconv.Itoa(s.Carrier.MarketingFlightNumber)

		segments = append(segments, models.FlightSegment{
			AirlineCode:       s.Carrier.Marketing,
			AirlineName:       carrierName(s.Carrier.Marketing, ""),
			FlightNumber:      flightNumber,
			DepartureAirport:  s.Departure.Airport,
			DepartureTerminal: optional(s.Departure.Terminal),
			ArrivalAirport:    s.Arrival.Airport,
			ArrivalTerminal:   optional(s.Arrival.Terminal),
			DepartureTime:     depTime,
			ArrivalTime:       arrTime,
			DurationMinutes:   s.ElapsedTime,
		})
	}

	return segments, nil
}

// basePrice picks the pre-tax fare in the settlement currency. Sabre reports
// it as the equivalent amount when the fare was filed in another currency.
func (p *SabreProvider) basePrice(pricing sabrePricing) (float64, bool) {
	fare := pricing.Fare.TotalFare
	switch {
	case strings.EqualFold(fare.EquivalentCurrency, p.config.Currency) && fare.EquivalentAmount > 0:
		return fare.EquivalentAmount, true
	case strings.EqualFold(fare.BaseFareCurrency, p.config.Currency):
		return fare.BaseFareAmount, true
	}
	return 0, false
}

func formatSabreBaggage(b sabreBaggage, fallback string) string {
	switch {
	case b.PieceCount > 0:
		return strconv.Itoa(b.PieceCount) + "PC"
	case b.Weight > 0:
		return strconv.Itoa(b.Weight) + strings.ToUpper(b.Unit)
	}
	return fallback
}

func sabreCabinCode(c models.CabinClass) string {
	switch c {
	case models.CabinPremiumEconomy:
		return "S"
	case models.CabinBusiness:
		return "C"
	case models.CabinFirst:
		return "F"
	default:
		return "Y"
	}
}
