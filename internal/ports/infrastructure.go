package ports

import (
	"time"
)

// DefaultTownConfig describes the town used when geocoding fails
type DefaultTownConfig struct {
	Name      string
	Latitude  float64
	Longitude float64
	Address   string
}

// MeteoConfig represents town-weather cache configuration
type MeteoConfig struct {
	StaleTimeout   time.Duration
	HourResolution int
	Location       *time.Location
	DefaultTown    DefaultTownConfig
}

// PollerConfig represents chat poller configuration
type PollerConfig struct {
	RetryInitial time.Duration
	RetryMax     time.Duration
	// DefaultText answers updates that carry no text
	DefaultText string
}

// AdminConfig represents admin HTTP server configuration
type AdminConfig struct {
	Enabled bool
	Port    int
}

// CacheConfig represents geocode lookup cache configuration
type CacheConfig struct {
	Type string
	TTL  time.Duration
}

// ConfigProvider defines the contract for configuration management
type ConfigProvider interface {
	GetMeteoConfig() MeteoConfig
	GetPollerConfig() PollerConfig
	GetAdminConfig() AdminConfig
	GetCacheConfig() CacheConfig
}

// Logger defines the contract for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a log field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Geocode result labels for MetricsCollector.RecordGeocode
const (
	GeocodeResultFound    = "found"
	GeocodeResultNotFound = "not_found"
	GeocodeResultError    = "error"
)

// MetricsCollector defines the contract for bot metrics collection
type MetricsCollector interface {
	RecordTownLookup(hit bool)
	RecordForecastRefresh(success bool)
	RecordGeocode(result string)
	RecordPollFailure()
	RecordUpdates(count int)
	RecordReplyFailure()
	SetTownCacheSize(size int)
	SetKnownChats(count int)
}
