package external

import (
	"context"
	"time"

	"meteobot.app/internal/ports"
)

// GeocoderLoggingDecorator decorates a geocoder with structured logging
type GeocoderLoggingDecorator struct {
	geocoder ports.Geocoder
	logger   ports.Logger
}

// NewGeocoderLoggingDecorator creates a new logging decorator for geocoders
func NewGeocoderLoggingDecorator(geocoder ports.Geocoder, logger ports.Logger) ports.Geocoder {
	return &GeocoderLoggingDecorator{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Resolve wraps the geocoder call with structured logging
func (d *GeocoderLoggingDecorator) Resolve(ctx context.Context, town string) (*ports.GeoInfo, error) {
	providerName := d.geocoder.GetProviderName()

	d.logger.Info("Geocode request started",
		ports.F("provider", providerName),
		ports.F("town", town),
		ports.F("event", "request"))

	startTime := time.Now()
	geo, err := d.geocoder.Resolve(ctx, town)
	duration := time.Since(startTime)

	if err != nil {
		d.logger.Error("Geocode request failed",
			ports.F("provider", providerName),
			ports.F("town", town),
			ports.F("event", "error"),
			ports.F("duration_ms", duration.Milliseconds()),
			ports.F("error", err.Error()))
		return nil, err
	}

	d.logger.Info("Geocode request completed",
		ports.F("provider", providerName),
		ports.F("town", town),
		ports.F("event", "response"),
		ports.F("duration_ms", duration.Milliseconds()),
		ports.F("address", geo.Address),
		ports.F("latitude", geo.Latitude),
		ports.F("longitude", geo.Longitude))

	return geo, nil
}

// GetProviderName returns the name of the wrapped geocoder with logging indication
func (d *GeocoderLoggingDecorator) GetProviderName() string {
	return "logged(" + d.geocoder.GetProviderName() + ")"
}

// ForecastProviderLoggingDecorator decorates a forecast provider with structured logging
type ForecastProviderLoggingDecorator struct {
	provider ports.ForecastProvider
	logger   ports.Logger
}

// NewForecastProviderLoggingDecorator creates a new logging decorator for forecast providers
func NewForecastProviderLoggingDecorator(provider ports.ForecastProvider, logger ports.Logger) ports.ForecastProvider {
	return &ForecastProviderLoggingDecorator{
		provider: provider,
		logger:   logger,
	}
}

// Fetch wraps the provider call with structured logging
func (d *ForecastProviderLoggingDecorator) Fetch(ctx context.Context, latitude, longitude float64) (*ports.ForecastResult, error) {
	providerName := d.provider.GetProviderName()

	d.logger.Info("Forecast request started",
		ports.F("provider", providerName),
		ports.F("latitude", latitude),
		ports.F("longitude", longitude),
		ports.F("event", "request"))

	startTime := time.Now()
	result, err := d.provider.Fetch(ctx, latitude, longitude)
	duration := time.Since(startTime)

	if err != nil {
		d.logger.Error("Forecast request failed",
			ports.F("provider", providerName),
			ports.F("latitude", latitude),
			ports.F("longitude", longitude),
			ports.F("event", "error"),
			ports.F("duration_ms", duration.Milliseconds()),
			ports.F("error", err.Error()))
		return nil, err
	}

	d.logger.Info("Forecast request completed",
		ports.F("provider", providerName),
		ports.F("latitude", latitude),
		ports.F("longitude", longitude),
		ports.F("event", "response"),
		ports.F("duration_ms", duration.Milliseconds()),
		ports.F("valid", result.Valid),
		ports.F("buckets", len(result.Forecast.Time)))

	return result, nil
}

// GetProviderName returns the name of the wrapped provider with logging indication
func (d *ForecastProviderLoggingDecorator) GetProviderName() string {
	return "logged(" + d.provider.GetProviderName() + ")"
}
