package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/skycastapp/skycast/internal/location"
	"github.com/skycastapp/skycast/internal/weather"
)

var validate = validator.New()

// WeatherService is the forecast-serving surface the handlers need.
type WeatherService interface {
	Forecast(ctx context.Context, lat, lon float64, units string) (*weather.Forecast, error)
	CacheStats() weather.Stats
	ClearCache()
}

// LocationService is the location-resolution surface the handlers need.
type LocationService interface {
	Detect(ctx context.Context, opts location.Options) location.Location
	Cached() (location.Location, bool)
	ClearCache()
	Permission(ctx context.Context) location.PermissionState
	Search(ctx context.Context, query string) (location.Location, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, weatherSvc WeatherService, locSvc LocationService) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		req, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := weatherSvc.Forecast(c.UserContext(), req.Lat, req.Lon, req.Units)
		if err != nil {
			return fiber.NewError(weatherStatus(err), err.Error())
		}
		return c.JSON(forecast)
	})

	v1.Get("/location", func(c *fiber.Ctx) error {
		refresh := c.QueryBool("refresh", false)
		loc := locSvc.Detect(c.UserContext(), location.Options{ForceRefresh: refresh})
		return c.JSON(loc)
	})

	v1.Get("/location/search", func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}

		loc, err := locSvc.Search(c.UserContext(), query)
		if err != nil {
			return fiber.NewError(locationStatus(err), err.Error())
		}
		return c.JSON(loc)
	})

	v1.Get("/location/permission", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"state": locSvc.Permission(c.UserContext())})
	})

	v1.Delete("/location/cache", func(c *fiber.Ctx) error {
		locSvc.ClearCache()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/cache/stats", func(c *fiber.Ctx) error {
		return c.JSON(weatherSvc.CacheStats())
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		weatherSvc.ClearCache()
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// weatherQuery holds validated query parameters for the forecast endpoint.
type weatherQuery struct {
	Lat   float64 `validate:"gte=-90,lte=90"`
	Lon   float64 `validate:"gte=-180,lte=180"`
	Units string  `validate:"oneof=celsius fahrenheit"`
}

func parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	var q weatherQuery

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, errors.New("lon must be a number")
	}

	q.Units = c.Query("units", "celsius")

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// weatherStatus maps the weather error taxonomy to HTTP status codes.
// Timeouts and network errors are retryable upstream conditions; validation
// failures mean the upstream payload itself was unusable.
func weatherStatus(err error) int {
	switch weather.KindOf(err) {
	case weather.KindTimeout:
		return fiber.StatusGatewayTimeout
	case weather.KindNetworkError, weather.KindAPIError, weather.KindInvalidResponse:
		return fiber.StatusBadGateway
	case weather.KindValidationError:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func locationStatus(err error) int {
	switch location.KindOf(err) {
	case location.KindTimeout:
		return fiber.StatusGatewayTimeout
	case location.KindNetworkError:
		return fiber.StatusBadGateway
	case location.KindPositionUnavailable:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
