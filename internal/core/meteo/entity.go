package meteo

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"meteobot.app/internal/ports"
)

const (
	// FetchErrorReply is returned when a forecast refresh fails
	FetchErrorReply = "Ошибка получения прогноза погоды"
	// Unavailable stands in for a forecast value missing at the requested hour
	Unavailable = "нет данных"

	replyTemplate      = "Погода в %s на %s:\nТемпература: %s\nОсадки: %.1f мм"
	diagnosticTemplate = "Ошибка при разборе ответа от сервера. Размер массива time: %d, temperature: %d, rain: %d, snowfall: %d"

	// snowfall is reported in cm, rain in mm
	snowToRainFactor = 10
)

// Town is a user supplied town name together with its cache key
type Town struct {
	Name string
	Key  string
}

// NormalizeTown canonicalizes raw input into a town key. Existing percent
// escapes are decoded first so that normalizing a key yields the same key.
func NormalizeTown(raw string) Town {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	name := strings.ToLower(strings.Join(strings.Fields(decoded), " "))
	return Town{Name: name, Key: url.PathEscape(name)}
}

// IsEmpty reports whether the input carried no town name at all
func (t Town) IsEmpty() bool {
	return t.Key == ""
}

// TownEntry is the cached state of a single town. refresh serializes
// forecast fetches; mu guards the data and is never held across a fetch.
type TownEntry struct {
	refresh sync.Mutex
	mu      sync.RWMutex

	Geo       ports.GeoInfo
	Forecast  ports.Forecast
	Units     ports.Units
	Valid     bool
	UpdatedAt time.Time
}

func newTownEntry(geo ports.GeoInfo) *TownEntry {
	return &TownEntry{
		Geo:   geo,
		Units: ports.DefaultUnits(),
	}
}

// NeedsRefresh reports whether the forecast must be fetched again
func (e *TownEntry) NeedsRefresh(now time.Time, staleTimeout time.Duration) bool {
	return !e.Valid || now.Sub(e.UpdatedAt) > staleTimeout
}

// Apply overwrites the forecast with a freshly fetched result
func (e *TownEntry) Apply(result *ports.ForecastResult, now time.Time) {
	e.Forecast = result.Forecast
	e.Units = result.Units
	e.Valid = result.Valid && len(result.Forecast.Time) > 0
	e.UpdatedAt = now
}

// ForecastIndex returns the forecast bucket shown for the given local time:
// the bucket after the one containing the current hour.
func ForecastIndex(localNow time.Time, hourResolution int) int {
	if hourResolution < 1 {
		hourResolution = 1
	}
	return localNow.Hour()/hourResolution + 1
}

// Format renders the reply for the bucket that follows localNow
func (e *TownEntry) Format(localNow time.Time, hourResolution int) string {
	f := e.Forecast
	if len(f.Time) == 0 {
		return fmt.Sprintf(diagnosticTemplate, len(f.Time), len(f.Temperature), len(f.Rain), len(f.Snowfall))
	}

	idx := ForecastIndex(localNow, hourResolution)

	timeLabel := Unavailable
	if idx < len(f.Time) {
		timeLabel = f.Time[idx]
	}

	temperature := Unavailable
	if idx < len(f.Temperature) && !math.IsNaN(f.Temperature[idx]) {
		temperature = fmt.Sprintf("%.1f %s", f.Temperature[idx], e.Units.Temperature)
	}

	precipitation := valueAt(f.Rain, idx) + valueAt(f.Snowfall, idx)*snowToRainFactor

	return fmt.Sprintf(replyTemplate, e.Geo.Address, timeLabel, temperature, precipitation)
}

func valueAt(values []float64, idx int) float64 {
	if idx >= len(values) || math.IsNaN(values[idx]) {
		return 0
	}
	return values[idx]
}

// Stats describes the size of the town cache
type Stats struct {
	Towns      int `json:"towns"`
	ValidTowns int `json:"valid_towns"`
}
