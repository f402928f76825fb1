package ports

import (
	"context"
	"time"
)

// Forecast holds the hourly sequences returned by the forecast service.
// The sequences are expected to be index-aligned but this is not guaranteed.
type Forecast struct {
	Time        []string
	Temperature []float64
	Rain        []float64
	Snowfall    []float64
}

// Units holds the display labels for the forecast sequences
type Units struct {
	Time        string
	Temperature string
	Rain        string
	Snowfall    string
}

// DefaultUnits returns the labels used when the response omits them
func DefaultUnits() Units {
	return Units{
		Time:        "iso8601",
		Temperature: "°C",
		Rain:        "mm",
		Snowfall:    "cm",
	}
}

// ForecastResult is a single forecast fetch. Valid is set only when the
// time sequence was present in the response.
type ForecastResult struct {
	Forecast  Forecast
	Units     Units
	Valid     bool
	FetchedAt time.Time
}

// ForecastProvider fetches an hourly forecast for a position
type ForecastProvider interface {
	Fetch(ctx context.Context, latitude, longitude float64) (*ForecastResult, error)
	GetProviderName() string
}
