package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// NominatimProvider implements Provider using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient
	baseURL string
	limiter *rate.Limiter
	log     *slog.Logger
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors for the Nominatim provider.
var (
	ErrNoResult      = errors.New("nominatim API returned no results")
	ErrInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// coordinate accepts both string and numeric JSON encodings; Nominatim
// returns lat/lon as strings.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("parse coordinate %q: %w", text, err)
		}
		*c = coordinate(value)
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*c = coordinate(value)
		return nil
	}

	return fmt.Errorf("coordinate must be a string or number")
}

// nominatimAddress is the address breakdown in a reverse response. Which of
// the locality fields is populated depends on the place type.
type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	Municipality string `json:"municipality"`
	Country      string `json:"country"`
}

// locality returns the most specific populated locality name.
func (a nominatimAddress) locality() string {
	for _, name := range []string{a.City, a.Town, a.Village, a.Hamlet, a.Municipality} {
		if name != "" {
			return name
		}
	}
	return ""
}

type reverseResponse struct {
	Error   string           `json:"error"`
	Address nominatimAddress `json:"address"`
}

type searchResult struct {
	Lat         coordinate `json:"lat"`
	Lon         coordinate `json:"lon"`
	DisplayName string     `json:"display_name"`
}

// NewNominatimProvider creates a Nominatim provider against the public API
// endpoint, rate limited to 1 request/second per the usage policy.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout * time.Second}, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client. Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:  client,
		baseURL: "https://nominatim.openstreetmap.org",
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
		// User-Agent MUST include valid contact info per Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		userAgent: "Skycast-Weather-Dashboard/1.0 (https://github.com/skycastapp/skycast)",
	}
}

// Reverse resolves coordinates to a city-level place name using zoom=10,
// which maps roughly to city granularity in Nominatim.
func (np *NominatimProvider) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("accept-language", "en")
	query.Set("zoom", "10")

	body, err := np.do(ctx, "/reverse", query)
	if err != nil {
		return Place{}, err
	}

	var resp reverseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Place{}, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if resp.Error != "" {
		return Place{}, fmt.Errorf("nominatim reverse geocoding failed: %s", resp.Error)
	}

	place := Place{
		City:    resp.Address.locality(),
		Country: resp.Address.Country,
	}
	np.log.DebugContext(ctx, "Nominatim reverse result", "city", place.City, "country", place.Country)
	return place, nil
}

// Forward resolves a free-text query to coordinates, taking the top result.
func (np *NominatimProvider) Forward(ctx context.Context, query string) (Point, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	body, err := np.do(ctx, "/search", params)
	if err != nil {
		return Point{}, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Point{}, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return Point{}, ErrNoResult
	}

	lat, lon := float64(results[0].Lat), float64(results[0].Lon)
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("%w: %f,%f", ErrInvalidCoords, lat, lon)
	}

	return Point{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: results[0].DisplayName,
	}, nil
}

func (np *NominatimProvider) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Required headers per Nominatim usage policy.
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
