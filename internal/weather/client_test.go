package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycastapp/skycast/internal/httpx"
)

const validForecastJSON = `{
	"latitude": 52.52,
	"longitude": 13.405,
	"timezone": "Europe/Berlin",
	"current_weather": {
		"temperature": 18.3,
		"weathercode": 61,
		"windspeed": 11.2,
		"winddirection": 230,
		"time": "2026-08-30T12:00"
	},
	"hourly": {
		"time": ["2026-08-30T12:00", "2026-08-30T13:00"],
		"temperature_2m": [18.3, 18.9],
		"relativehumidity_2m": [70, 68],
		"apparent_temperature": [17.1, 17.8],
		"weathercode": [61, 3],
		"surface_pressure": [1013.2, 1013.0],
		"visibility": [24000, 24000],
		"uv_index": [3.2, 3.5]
	},
	"daily": {
		"time": ["2026-08-30"],
		"temperature_2m_max": [21.4],
		"temperature_2m_min": [12.1],
		"weathercode": [61],
		"precipitation_sum": [4.2],
		"precipitation_probability_max": [80],
		"windspeed_10m_max": [18.0],
		"uv_index_max": [4.1]
	}
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := NewClientWithURL(srv.Client(), srv.URL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Keep tests fast: no retry backoff.
	c.httpCfg.Backoff = httpx.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}
	return c
}

func TestClientFetch(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"latitude":      q.Get("latitude"),
			"longitude":     q.Get("longitude"),
			"current":       q.Get("current_weather"),
			"hourly":        q.Get("hourly"),
			"daily":         q.Get("daily"),
			"timezone":      q.Get("timezone"),
			"forecast_days": q.Get("forecast_days"),
			"unit":          q.Get("temperature_unit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validForecastJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	f, err := client.Fetch(context.Background(), 52.52, 13.405, "celsius")

	require.NoError(t, err)
	assert.InDelta(t, 18.3, f.Current.Temperature, 0.001)
	assert.Equal(t, 61, f.Current.WeatherCode)
	assert.Equal(t, ConditionRain, f.Condition)
	assert.Len(t, f.Hourly.Time, 2)
	assert.Len(t, f.Daily.Time, 1)

	assert.Equal(t, "52.5200", gotQuery["latitude"])
	assert.Equal(t, "13.4050", gotQuery["longitude"])
	assert.Equal(t, "true", gotQuery["current"])
	assert.Contains(t, gotQuery["hourly"], "relativehumidity_2m")
	assert.Contains(t, gotQuery["daily"], "precipitation_probability_max")
	assert.Equal(t, "auto", gotQuery["timezone"])
	assert.Equal(t, "5", gotQuery["forecast_days"])
	assert.Empty(t, gotQuery["unit"], "celsius is the upstream default and must not be sent")
}

func TestClientFetchFahrenheitUnit(t *testing.T) {
	var unit string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unit = r.URL.Query().Get("temperature_unit")
		_, _ = w.Write([]byte(validForecastJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.Fetch(context.Background(), 52.52, 13.405, "fahrenheit")

	require.NoError(t, err)
	assert.Equal(t, "fahrenheit", unit)
}

func TestClientFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Latitude must be in range"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.Fetch(context.Background(), 52.52, 13.405, "celsius")

	require.Error(t, err)
	assert.Equal(t, KindAPIError, KindOf(err))
}

func TestClientFetchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.Fetch(context.Background(), 52.52, 13.405, "celsius")

	require.Error(t, err)
	assert.Equal(t, KindInvalidResponse, KindOf(err))
}

func TestClientFetchMisalignedSeries(t *testing.T) {
	// temperature_2m has one value for two timestamps.
	payload := `{
		"current_weather": {"temperature": 1, "weathercode": 0, "windspeed": 0, "winddirection": 0, "time": "2026-08-30T12:00"},
		"hourly": {
			"time": ["2026-08-30T12:00", "2026-08-30T13:00"],
			"temperature_2m": [18.3],
			"relativehumidity_2m": [70, 68],
			"apparent_temperature": [17.1, 17.8],
			"weathercode": [61, 3],
			"surface_pressure": [1013.2, 1013.0]
		},
		"daily": {"time": [], "temperature_2m_max": [], "temperature_2m_min": [], "weathercode": []}
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.Fetch(context.Background(), 52.52, 13.405, "celsius")

	require.Error(t, err)
	assert.Equal(t, KindValidationError, KindOf(err))
	assert.Contains(t, err.Error(), "temperature_2m")
}

func TestClientFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.Client(), srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.httpCfg.Backoff = httpx.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	_, err := client.Fetch(context.Background(), 52.52, 13.405, "celsius")

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestConditionFromCode(t *testing.T) {
	assert.Equal(t, ConditionClear, ConditionFromCode(0))
	assert.Equal(t, ConditionCloudy, ConditionFromCode(2))
	assert.Equal(t, ConditionMist, ConditionFromCode(45))
	assert.Equal(t, ConditionRain, ConditionFromCode(61))
	assert.Equal(t, ConditionSnow, ConditionFromCode(73))
	assert.Equal(t, ConditionStorm, ConditionFromCode(95))
	assert.Equal(t, ConditionUnknown, ConditionFromCode(40))
}
