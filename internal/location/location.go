package location

// Source records which resolution strategy produced a Location. It is set at
// construction and never overwritten.
type Source string

const (
	SourceGPS     Source = "gps"
	SourceIP      Source = "ip"
	SourceManual  Source = "manual"
	SourceDefault Source = "default"
)

// Location is a resolved geographic point. Coordinates are always present and
// in range; City and Country are optional display names. A Location is
// immutable once constructed; a new resolution supersedes it rather than
// mutating it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Source    Source  `json:"source"`
}

// inRange reports whether the coordinates are valid WGS84 values.
func inRange(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
