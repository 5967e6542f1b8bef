package location

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/skycastapp/skycast/internal/httpx"
)

// IPResult is a successful IP geolocation lookup. City and Country are the
// provider's own display names and may be empty.
type IPResult struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
}

// IPLocator resolves the caller's approximate position from its IP address.
type IPLocator interface {
	Locate(ctx context.Context) (IPResult, error)
}

// IPAPILocator implements IPLocator against the ip-api.com JSON endpoint.
type IPAPILocator struct {
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *slog.Logger
}

func NewIPAPILocator(client *http.Client, log *slog.Logger) *IPAPILocator {
	return &IPAPILocator{
		baseURL: "http://ip-api.com/json",
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("ip-api"),
		log:     log,
	}
}

// NewIPAPILocatorWithURL creates a locator against a custom endpoint. Useful
// for tests with httptest servers.
func NewIPAPILocatorWithURL(client *http.Client, baseURL string, log *slog.Logger) *IPAPILocator {
	l := NewIPAPILocator(client, log)
	l.baseURL = baseURL
	return l
}

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
	Country string   `json:"country"`
}

// Locate queries the IP geolocation provider. The caller bounds the request
// with a context deadline.
func (l *IPAPILocator) Locate(ctx context.Context) (IPResult, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, l.baseURL, nil)
	}

	resp, err := httpx.Do(ctx, l.httpCfg, l.circuit, buildRequest)
	if err != nil {
		return IPResult{}, classifyIPError(err)
	}
	defer resp.Body.Close()

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return IPResult{}, &Error{Kind: KindNetworkError, Message: "malformed ip-api response", Cause: err}
	}

	if payload.Status != "success" || payload.Lat == nil || payload.Lon == nil {
		return IPResult{}, &Error{Kind: KindPositionUnavailable, Message: "ip-api lookup failed: " + payload.Message}
	}
	if !inRange(*payload.Lat, *payload.Lon) {
		return IPResult{}, &Error{Kind: KindPositionUnavailable, Message: "ip-api returned out-of-range coordinates"}
	}

	return IPResult{
		Latitude:  *payload.Lat,
		Longitude: *payload.Lon,
		City:      payload.City,
		Country:   payload.Country,
	}, nil
}

func classifyIPError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "ip-api request timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindTimeout, Message: "ip-api request canceled", Cause: err}
	default:
		return &Error{Kind: KindNetworkError, Message: "ip-api request failed", Cause: err}
	}
}
