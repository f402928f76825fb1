package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

const (
	hourlyTime        = "time"
	hourlyTemperature = "temperature_2m"
	hourlyRain        = "rain"
	hourlySnowfall    = "snowfall"
)

// OpenMeteoProviderAdapter implements the ForecastProvider port for Open-Meteo
type OpenMeteoProviderAdapter struct {
	baseURL        string
	timezone       string
	forecastDays   int
	hourResolution int
	http           *resilientClient
	logger         ports.Logger
	now            func() time.Time
}

// OpenMeteoProviderParams holds parameters for creating the Open-Meteo provider
type OpenMeteoProviderParams struct {
	BaseURL        string
	Timezone       string
	ForecastDays   int
	HourResolution int
	Client         HTTPClient
	Breaker        *gobreaker.CircuitBreaker
	Backoff        *BackoffConfig
	Logger         ports.Logger
}

// openMeteoResponse keeps both sections raw so that each sequence is decoded on its own
type openMeteoResponse struct {
	Hourly      json.RawMessage `json:"hourly"`
	HourlyUnits json.RawMessage `json:"hourly_units"`
}

// NewOpenMeteoProviderAdapter creates a new Open-Meteo provider adapter
func NewOpenMeteoProviderAdapter(params OpenMeteoProviderParams) *OpenMeteoProviderAdapter {
	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	timezone := params.Timezone
	if timezone == "" {
		timezone = "Europe/Moscow"
	}
	forecastDays := params.ForecastDays
	if forecastDays <= 0 {
		forecastDays = 2
	}
	resolution := params.HourResolution
	if resolution <= 0 {
		resolution = 3
	}
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	breaker := params.Breaker
	if breaker == nil {
		breaker = NewCircuitBreaker("open-meteo")
	}
	backoff := DefaultBackoff()
	if params.Backoff != nil {
		backoff = *params.Backoff
	}

	return &OpenMeteoProviderAdapter{
		baseURL:        baseURL,
		timezone:       timezone,
		forecastDays:   forecastDays,
		hourResolution: resolution,
		http:           newResilientClient(client, breaker, backoff),
		logger:         params.Logger,
		now:            time.Now,
	}
}

// Fetch retrieves the hourly forecast for a position
func (p *OpenMeteoProviderAdapter) Fetch(ctx context.Context, latitude, longitude float64) (*ports.ForecastResult, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	query.Set("hourly", strings.Join([]string{hourlyTemperature, hourlyRain, hourlySnowfall}, ","))
	query.Set("timezone", p.timezone)
	query.Set("forecast_days", strconv.Itoa(p.forecastDays))
	if p.hourResolution > 1 {
		query.Set("temporal_resolution", fmt.Sprintf("hourly_%d", p.hourResolution))
	}
	endpoint := fmt.Sprintf("%s/v1/forecast?%s", p.baseURL, query.Encode())

	resp, err := p.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, errors.NewExternalAPIError("failed to call Open-Meteo", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("Failed to close Open-Meteo response body", ports.F("error", closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalAPIError("failed to read Open-Meteo response", err)
	}

	var apiResp openMeteoResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.NewExternalAPIError("failed to decode Open-Meteo response", err)
	}

	return p.parse(&apiResp), nil
}

func (p *OpenMeteoProviderAdapter) parse(apiResp *openMeteoResponse) *ports.ForecastResult {
	hourly := decodeSection(apiResp.Hourly)
	units := decodeSection(apiResp.HourlyUnits)

	timeSeq, timeOK := decodeStrings(hourly[hourlyTime])
	result := &ports.ForecastResult{
		Forecast: ports.Forecast{
			Time:        timeSeq,
			Temperature: decodeNumbers(hourly[hourlyTemperature], math.NaN()),
			Rain:        decodeNumbers(hourly[hourlyRain], 0),
			Snowfall:    decodeNumbers(hourly[hourlySnowfall], 0),
		},
		Units:     ports.DefaultUnits(),
		Valid:     timeOK && len(timeSeq) > 0,
		FetchedAt: p.now(),
	}

	if label, ok := decodeLabel(units[hourlyTime]); ok {
		result.Units.Time = label
	}
	if label, ok := decodeLabel(units[hourlyTemperature]); ok {
		result.Units.Temperature = label
	}
	if label, ok := decodeLabel(units[hourlyRain]); ok {
		result.Units.Rain = label
	}
	if label, ok := decodeLabel(units[hourlySnowfall]); ok {
		result.Units.Snowfall = label
	}

	for _, name := range []string{hourlyTime, hourlyTemperature, hourlyRain, hourlySnowfall} {
		if hourly[name] == nil {
			p.logger.Warn("Open-Meteo response is missing a sequence", ports.F("field", name))
		}
	}

	return result
}

// decodeSection returns the keys of a JSON object, or nothing when it is not one
func decodeSection(raw json.RawMessage) map[string]json.RawMessage {
	var section map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &section) != nil {
		return map[string]json.RawMessage{}
	}
	return section
}

func decodeStrings(raw json.RawMessage) ([]string, bool) {
	if raw == nil {
		return nil, false
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}
	return values, true
}

// decodeNumbers decodes a number array, substituting null entries with fallback
func decodeNumbers(raw json.RawMessage, fallback float64) []float64 {
	if raw == nil {
		return nil
	}
	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = fallback
			continue
		}
		out[i] = *v
	}
	return out
}

func decodeLabel(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var label string
	if err := json.Unmarshal(raw, &label); err != nil || label == "" {
		return "", false
	}
	return label, true
}

// GetProviderName returns the name of this forecast provider
func (p *OpenMeteoProviderAdapter) GetProviderName() string {
	return "open-meteo"
}
