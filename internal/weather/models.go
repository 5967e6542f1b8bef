package weather

import "time"

// Provenance of a forecast payload: freshly fetched or served from cache.
const (
	SourceAPI   = "api"
	SourceCache = "cache"
)

// Condition represents a normalized high-level weather condition derived from
// the WMO weather code.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// ConditionFromCode maps WMO weather interpretation codes (as used by
// Open-Meteo) to a normalized condition.
func ConditionFromCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code >= 45 && code <= 48:
		return ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// CurrentWeather is the current conditions block of a forecast.
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`
	WeatherCode   int     `json:"weathercode"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	Time          string  `json:"time"`
}

// Hourly holds parallel per-hour series; all slices share the length of Time.
type Hourly struct {
	Time                []string  `json:"time"`
	Temperature2m       []float64 `json:"temperature_2m"`
	RelativeHumidity2m  []float64 `json:"relativehumidity_2m"`
	ApparentTemperature []float64 `json:"apparent_temperature"`
	WeatherCode         []int     `json:"weathercode"`
	SurfacePressure     []float64 `json:"surface_pressure"`
	Visibility          []float64 `json:"visibility,omitempty"`
	UVIndex             []float64 `json:"uv_index,omitempty"`
}

// Daily holds parallel per-day series; all slices share the length of Time.
type Daily struct {
	Time                        []string  `json:"time"`
	Temperature2mMax            []float64 `json:"temperature_2m_max"`
	Temperature2mMin            []float64 `json:"temperature_2m_min"`
	WeatherCode                 []int     `json:"weathercode"`
	PrecipitationSum            []float64 `json:"precipitation_sum,omitempty"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max,omitempty"`
	WindSpeed10mMax             []float64 `json:"windspeed_10m_max,omitempty"`
	UVIndexMax                  []float64 `json:"uv_index_max,omitempty"`
}

// Forecast is the weather payload served to the dashboard. Source records
// provenance: entries stored in the cache keep SourceAPI, while reads from
// the cache return a copy tagged SourceCache.
type Forecast struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timezone  string         `json:"timezone"`
	Current   CurrentWeather `json:"current_weather"`
	Hourly    Hourly         `json:"hourly"`
	Daily     Daily          `json:"daily"`
	Condition Condition      `json:"condition"`
	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
}
