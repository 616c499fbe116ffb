package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/timezone"
)

const DefaultAmadeusBaseURL = "https://test.api.amadeus.com"

type amadeusTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type amadeusResponse struct {
	Data         []amadeusOffer      `json:"data"`
	Dictionaries amadeusDictionaries `json:"dictionaries"`
}

type amadeusDictionaries struct {
	Carriers map[string]string `json:"carriers"`
}

type amadeusOffer struct {
	ID                    string                 `json:"id"`
	NumberOfBookableSeats *int                   `json:"numberOfBookableSeats"`
	Itineraries           []amadeusItinerary     `json:"itineraries"`
	Price                 amadeusPrice           `json:"price"`
	TravelerPricings      []amadeusTravelerPrice `json:"travelerPricings"`
}

type amadeusItinerary struct {
	Duration string           `json:"duration"`
	Segments []amadeusSegment `json:"segments"`
}

type amadeusSegment struct {
	Departure   amadeusEndpoint `json:"departure"`
	Arrival     amadeusEndpoint `json:"arrival"`
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
	Duration    string          `json:"duration"`
}

type amadeusEndpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal"`
	At       string `json:"at"`
}

type amadeusPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	Base       string `json:"base"`
	GrandTotal string `json:"grandTotal"`
}

type amadeusTravelerPrice struct {
	FareDetailsBySegment []amadeusFareDetail `json:"fareDetailsBySegment"`
}

type amadeusFareDetail struct {
	Cabin               string          `json:"cabin"`
	IncludedCheckedBags amadeusBaggages `json:"includedCheckedBags"`
}

type amadeusBaggages struct {
	Quantity   int    `json:"quantity"`
	Weight     int    `json:"weight"`
	WeightUnit string `json:"weightUnit"`
}

type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Currency     string
	MaxResults   int
	HTTPClient   *http.Client
}

type AmadeusProvider struct {
	config AmadeusConfig
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewAmadeusProvider(config AmadeusConfig) *AmadeusProvider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultAmadeusBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Currency == "" {
		config.Currency = "TWD"
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 20
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &AmadeusProvider{config: config, client: client}
}

func (p *AmadeusProvider) Name() models.Provider {
	return models.ProviderAmadeus
}

func (p *AmadeusProvider) Search(ctx context.Context, params models.SearchParams) ([]models.Offer, error) {
	resp, err := p.searchOnce(ctx, params)
	if errors.Is(err, ErrUnauthorized) {
		p.invalidateToken()
		resp, err = p.searchOnce(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	results := make([]models.Offer, 0, len(resp.Data))
	for _, o := range resp.Data {
		offer, err := p.normalize(o, resp.Dictionaries, params)
		if err != nil {
			continue
		}
		results = append(results, offer)
	}

	return results, nil
}

func (p *AmadeusProvider) searchOnce(ctx context.Context, params models.SearchParams) (*amadeusResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("originLocationCode", params.Origin)
	q.Set("destinationLocationCode", params.Destination)
	q.Set("departureDate", params.DepartureDate)
	q.Set("adults", strconv.Itoa(params.Adults))
	if params.Children > 0 {
		q.Set("children", strconv.Itoa(params.Children))
	}
	if params.Infants > 0 {
		q.Set("infants", strconv.Itoa(params.Infants))
	}
	q.Set("travelClass", params.CabinClass.GDSCode())
	q.Set("currencyCode", p.config.Currency)
	q.Set("max", strconv.Itoa(p.config.MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/v2/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

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

	var resp amadeusResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

func (p *AmadeusProvider) getToken(ctx context.Context) (string, error) {
	if p.config.ClientID == "" || p.config.ClientSecret == "" {
		return "", ErrMissingCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.config.ClientID)
	form.Set("client_secret", p.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", statusError("token", res)
	}

	var tok amadeusTokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response: %w", ErrUnauthorized)
	}

	// treat the token as expired 30s before Amadeus does
	p.token = tok.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - 30*time.Second)
	return p.token, nil
}

func (p *AmadeusProvider) invalidateToken() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

func (p *AmadeusProvider) normalize(o amadeusOffer, dict amadeusDictionaries, params models.SearchParams) (models.Offer, error) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return models.Offer{}, fmt.Errorf("%w: AMA-%s: no itinerary", models.ErrMalformedOffer, o.ID)
	}
	if o.Price.Currency != "" && !strings.EqualFold(o.Price.Currency, p.config.Currency) {
		return models.Offer{}, fmt.Errorf("%w: AMA-%s: currency %s", models.ErrMalformedOffer, o.ID, o.Price.Currency)
	}

	base, err := strconv.ParseFloat(o.Price.Base, 64)
	if err != nil {
		return models.Offer{}, fmt.Errorf("%w: AMA-%s: base price %q", models.ErrMalformedOffer, o.ID, o.Price.Base)
	}

	// outbound itinerary only; the return leg is searched separately
	itinerary := o.Itineraries[0]
	segments := make([]models.FlightSegment, 0, len(itinerary.Segments))
	for _, s := range itinerary.Segments {
		depTime, arrTime, err := amadeusSegmentTimes(s)
		if err != nil {
			return models.Offer{}, err
		}

		segments = append(segments, models.FlightSegment{
			AirlineCode:       s.CarrierCode,
			AirlineName:       carrierName(s.CarrierCode, dict.Carriers[s.CarrierCode]),
			FlightNumber:      s.CarrierCode + s.Number,
			DepartureAirport:  s.Departure.IATACode,
			DepartureTerminal: optional(s.Departure.Terminal),
			ArrivalAirport:    s.Arrival.IATACode,
			ArrivalTerminal:   optional(s.Arrival.Terminal),
			DepartureTime:     depTime,
			ArrivalTime:       arrTime,
			DurationMinutes:   parseISODuration(s.Duration),
		})
	}

	cabin := params.CabinClass
	baggage := "23KG"
	if len(o.TravelerPricings) > 0 && len(o.TravelerPricings[0].FareDetailsBySegment) > 0 {
		detail := o.TravelerPricings[0].FareDetailsBySegment[0]
		if c, ok := models.ParseCabinClass(detail.Cabin); ok {
			cabin = c
		}
		switch bags := detail.IncludedCheckedBags; {
		case bags.Quantity > 0:
			baggage = strconv.Itoa(bags.Quantity) + "PC"
		case bags.Weight > 0:
			baggage = strconv.Itoa(bags.Weight) + strings.ToUpper(bags.WeightUnit)
		}
	}

	return models.Offer{
		ID:               "AMA-" + o.ID,
		Provider:         p.Name(),
		Segments:         segments,
		BasePrice:        base,
		Currency:         strings.ToUpper(p.config.Currency),
		CabinClass:       cabin,
		BaggageAllowance: baggage,
		AvailableSeats:   o.NumberOfBookableSeats,
	}, nil
}

// amadeusSegmentTimes reads Amadeus's offset-less local times. When only one
// end of the segment is in the zone table, the other end's offset follows
// from the segment duration.
func amadeusSegmentTimes(s amadeusSegment) (time.Time, time.Time, error) {
	dep, err := timezone.ParseAirportTime(s.Departure.At, s.Departure.IATACode)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	arr, err := timezone.ParseAirportTime(s.Arrival.At, s.Arrival.IATACode)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	_, depKnown := timezone.LookupAirport(s.Departure.IATACode)
	_, arrKnown := timezone.LookupAirport(s.Arrival.IATACode)
	duration := time.Duration(parseISODuration(s.Duration)) * time.Minute

	switch {
	case duration <= 0 || depKnown == arrKnown:
	case depKnown:
		arr = timezone.WithOffsetFrom(arr, dep.Add(duration))
	default:
		dep = timezone.WithOffsetFrom(dep, arr.Add(-duration))
	}
	return dep, arr, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statusError(op string, res *http.Response) error {
	if res.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Op: op, RetryAfter: parseRetryAfter(res.Header.Get("Retry-After"), time.Now())}
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("%s: unexpected status %d: %s", op, res.StatusCode, strings.TrimSpace(string(body)))
}
