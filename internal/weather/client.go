package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/skycastapp/skycast/internal/httpx"
)

var hourlyFields = []string{
	"temperature_2m",
	"relativehumidity_2m",
	"apparent_temperature",
	"weathercode",
	"surface_pressure",
	"visibility",
	"uv_index",
}

var dailyFields = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"weathercode",
	"precipitation_sum",
	"precipitation_probability_max",
	"windspeed_10m_max",
	"uv_index_max",
}

// Client fetches forecasts from the Open-Meteo API.
type Client struct {
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
	timeout time.Duration
	log     *slog.Logger
}

// NewClient creates an Open-Meteo client. Non-positive timeout defaults to 10s.
func NewClient(client *http.Client, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("open-meteo"),
		timeout: timeout,
		log:     log,
	}
}

// NewClientWithURL creates a client against a custom endpoint, for tests.
func NewClientWithURL(client *http.Client, baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	c := NewClient(client, timeout, log)
	c.baseURL = baseURL
	return c
}

// Fetch retrieves a 5-day forecast for the coordinates. units is "celsius"
// (the upstream default) or "fahrenheit". Errors are tagged with a kind so
// handlers can distinguish retryable failures from hard ones.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, units string) (*Forecast, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%.4f", lat))
		values.Set("longitude", fmt.Sprintf("%.4f", lon))
		values.Set("current_weather", "true")
		values.Set("hourly", strings.Join(hourlyFields, ","))
		values.Set("daily", strings.Join(dailyFields, ","))
		values.Set("timezone", "auto")
		values.Set("forecast_days", "5")
		if units == "fahrenheit" {
			values.Set("temperature_unit", "fahrenheit")
		}

		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := httpx.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer resp.Body.Close()

	var payload struct {
		Latitude  float64        `json:"latitude"`
		Longitude float64        `json:"longitude"`
		Timezone  string         `json:"timezone"`
		Current   CurrentWeather `json:"current_weather"`
		Hourly    Hourly         `json:"hourly"`
		Daily     Daily          `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Message: "malformed forecast payload", Cause: err}
	}

	f := &Forecast{
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		Timezone:  payload.Timezone,
		Current:   payload.Current,
		Hourly:    payload.Hourly,
		Daily:     payload.Daily,
		Condition: ConditionFromCode(payload.Current.WeatherCode),
	}

	if err := validateForecast(f); err != nil {
		return nil, err
	}
	return f, nil
}

// validateForecast checks payload sanity: the current block must carry a
// timestamp and the hourly/daily series must stay aligned with their time axes.
func validateForecast(f *Forecast) error {
	if f.Current.Time == "" {
		return &Error{Kind: KindValidationError, Message: "forecast payload missing current_weather time"}
	}

	n := len(f.Hourly.Time)
	for name, l := range map[string]int{
		"temperature_2m":       len(f.Hourly.Temperature2m),
		"relativehumidity_2m":  len(f.Hourly.RelativeHumidity2m),
		"apparent_temperature": len(f.Hourly.ApparentTemperature),
		"weathercode":          len(f.Hourly.WeatherCode),
		"surface_pressure":     len(f.Hourly.SurfacePressure),
	} {
		if l != n {
			return &Error{
				Kind:    KindValidationError,
				Message: fmt.Sprintf("hourly series %s has %d values for %d timestamps", name, l, n),
			}
		}
	}

	d := len(f.Daily.Time)
	for name, l := range map[string]int{
		"temperature_2m_max": len(f.Daily.Temperature2mMax),
		"temperature_2m_min": len(f.Daily.Temperature2mMin),
		"weathercode":        len(f.Daily.WeatherCode),
	} {
		if l != d {
			return &Error{
				Kind:    KindValidationError,
				Message: fmt.Sprintf("daily series %s has %d values for %d timestamps", name, l, d),
			}
		}
	}

	return nil
}

func classifyFetchError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "weather request timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindTimeout, Message: "weather request canceled", Cause: err}
	case errors.Is(err, httpx.ErrUnexpected),
		errors.Is(err, httpx.ErrServerError),
		errors.Is(err, httpx.ErrRateLimited):
		return &Error{Kind: KindAPIError, Message: "weather API rejected the request", Cause: err}
	case errors.Is(err, httpx.ErrCircuitOpen):
		return &Error{Kind: KindNetworkError, Message: "weather provider temporarily unavailable", Cause: err}
	default:
		return &Error{Kind: KindNetworkError, Message: "weather request failed", Cause: err}
	}
}
