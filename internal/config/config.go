package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"meteobot.app/pkg/errors"
)

const (
	maxRedisDB         = 15
	maxCacheTTLMinutes = 10080
	maxPortNumber      = 65535
	maxForecastDays    = 16
	maxPollTimeout     = 600
	maxStaleMinutes    = 1440
	maxReportMinutes   = 1440
	maxHTTPTimeout     = 300
)

// Config represents the application configuration structure
type Config struct {
	Telegram    TelegramConfig    `split_words:"true"`
	Geocode     GeocodeConfig     `split_words:"true"`
	Weather     WeatherConfig     `split_words:"true"`
	DefaultTown DefaultTownConfig `split_words:"true"`
	Cache       CacheConfig       `split_words:"true"`
	Admin       AdminConfig       `split_words:"true"`
	Reporter    ReporterConfig    `split_words:"true"`
	Logging     LoggingConfig     `split_words:"true"`
	HTTP        HTTPConfig        `split_words:"true"`
}

type TelegramConfig struct {
	BotToken       string `envconfig:"TELEGRAM_BOT_TOKEN"`
	BaseURL        string `envconfig:"TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
	PollTimeout    int    `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"30"`
	RetryInitialMs int    `envconfig:"TELEGRAM_RETRY_INITIAL_MS" default:"500"`
	RetryMaxMs     int    `envconfig:"TELEGRAM_RETRY_MAX_MS" default:"30000"`
}

type GeocodeConfig struct {
	APIKey  string `envconfig:"GEOCODE_API_KEY"`
	BaseURL string `envconfig:"GEOCODE_BASE_URL" default:"https://geocode-maps.yandex.ru"`
	Lang    string `envconfig:"GEOCODE_LANG" default:"ru_RU"`
}

type WeatherConfig struct {
	BaseURL             string `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com"`
	Timezone            string `envconfig:"WEATHER_TIMEZONE" default:"Europe/Moscow"`
	ForecastDays        int    `envconfig:"WEATHER_FORECAST_DAYS" default:"2"`
	HourResolution      int    `envconfig:"WEATHER_HOUR_RESOLUTION" default:"3"`
	StaleTimeoutMinutes int    `envconfig:"WEATHER_STALE_TIMEOUT_MINUTES" default:"15"`
	EnableLogging       bool   `envconfig:"WEATHER_ENABLE_LOGGING" default:"true"`
}

// Location loads the configured forecast timezone
func (w WeatherConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("WEATHER_TIMEZONE %q is not a known timezone", w.Timezone), err)
	}
	return loc, nil
}

// StaleTimeout returns the forecast freshness window
func (w WeatherConfig) StaleTimeout() time.Duration {
	return time.Duration(w.StaleTimeoutMinutes) * time.Minute
}

type DefaultTownConfig struct {
	Name      string  `envconfig:"DEFAULT_TOWN_NAME" default:"Казань"`
	Latitude  float64 `envconfig:"DEFAULT_TOWN_LATITUDE" default:"55.8125"`
	Longitude float64 `envconfig:"DEFAULT_TOWN_LONGITUDE" default:"49.1221"`
	Address   string  `envconfig:"DEFAULT_TOWN_ADDRESS" default:"Россия, Республика Татарстан (Татарстан), Казань"`
}

// CacheType represents the type of cache to use
type CacheType int

const (
	CacheTypeUnknown CacheType = iota
	CacheTypeMemory
	CacheTypeRedis
)

// String returns the string representation of cache type
func (c CacheType) String() string {
	switch c {
	case CacheTypeMemory:
		return "memory"
	case CacheTypeRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// IsValid checks if the cache type is valid
func (c CacheType) IsValid() bool {
	return c == CacheTypeMemory || c == CacheTypeRedis
}

// CacheTypeFromString converts string to CacheType enum
func CacheTypeFromString(s string) CacheType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "memory":
		return CacheTypeMemory
	case "redis":
		return CacheTypeRedis
	default:
		return CacheTypeUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for envconfig
func (c *CacheType) UnmarshalText(text []byte) error {
	*c = CacheTypeFromString(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler for envconfig
func (c CacheType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type CacheConfig struct {
	Type       CacheType `envconfig:"CACHE_TYPE" default:"memory"`
	TTLMinutes int       `envconfig:"GEOCODE_CACHE_TTL_MINUTES" default:"1440"`
	// NotFoundTTLMinutes keeps unknown towns from reaching the geocoder again; 0 disables it
	NotFoundTTLMinutes int         `envconfig:"GEOCODE_NOT_FOUND_TTL_MINUTES" default:"10"`
	Redis              RedisConfig `split_words:"true"`
}

// TTL returns the geocode lookup cache lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// NotFoundTTL returns how long a not-found geocode answer is remembered
func (c CacheConfig) NotFoundTTL() time.Duration {
	return time.Duration(c.NotFoundTTLMinutes) * time.Minute
}

type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string `envconfig:"REDIS_PASSWORD" default:""`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
}

type AdminConfig struct {
	Enabled bool `envconfig:"ADMIN_ENABLED" default:"false"`
	Port    int  `envconfig:"ADMIN_PORT" default:"8080"`
}

type ReporterConfig struct {
	IntervalMinutes int `envconfig:"REPORT_INTERVAL_MINUTES" default:"60"`
}

type LoggingConfig struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	ToFile   bool   `envconfig:"LOG_TO_FILE" default:"false"`
	FilePath string `envconfig:"LOG_FILE_PATH" default:"logs/meteobot.log"`
}

type HTTPConfig struct {
	TimeoutSeconds int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"10"`
}

// Timeout returns the outbound request timeout for geocoder and forecast calls
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	validators := []func() error{
		c.Telegram.Validate,
		c.Geocode.Validate,
		c.Weather.Validate,
		c.DefaultTown.Validate,
		c.Cache.Validate,
		c.Admin.Validate,
		c.Reporter.Validate,
		c.Logging.Validate,
		c.HTTP.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateBaseURL(name, value string) error {
	if value == "" {
		return errors.NewConfigurationError(name+" cannot be empty", nil)
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return errors.NewConfigurationError(name+" must start with http:// or https://", nil)
	}
	return nil
}

func (t *TelegramConfig) Validate() error {
	if strings.TrimSpace(t.BotToken) == "" {
		return errors.NewConfigurationError("TELEGRAM_BOT_TOKEN is required", nil)
	}
	if err := validateBaseURL("TELEGRAM_BASE_URL", t.BaseURL); err != nil {
		return err
	}
	if t.PollTimeout < 0 || t.PollTimeout > maxPollTimeout {
		return errors.NewConfigurationError("TELEGRAM_POLL_TIMEOUT must be between 0 and 600 seconds", nil)
	}
	if t.RetryInitialMs < 1 {
		return errors.NewConfigurationError("TELEGRAM_RETRY_INITIAL_MS must be at least 1", nil)
	}
	if t.RetryMaxMs < t.RetryInitialMs {
		return errors.NewConfigurationError("TELEGRAM_RETRY_MAX_MS cannot be less than TELEGRAM_RETRY_INITIAL_MS", nil)
	}
	return nil
}

func (g *GeocodeConfig) Validate() error {
	if strings.TrimSpace(g.APIKey) == "" {
		return errors.NewConfigurationError("GEOCODE_API_KEY is required", nil)
	}
	if err := validateBaseURL("GEOCODE_BASE_URL", g.BaseURL); err != nil {
		return err
	}
	if g.Lang == "" {
		return errors.NewConfigurationError("GEOCODE_LANG cannot be empty", nil)
	}
	return nil
}

func (w *WeatherConfig) Validate() error {
	if err := validateBaseURL("WEATHER_BASE_URL", w.BaseURL); err != nil {
		return err
	}
	if _, err := w.Location(); err != nil {
		return err
	}
	if w.ForecastDays < 1 || w.ForecastDays > maxForecastDays {
		return errors.NewConfigurationError("WEATHER_FORECAST_DAYS must be between 1 and 16", nil)
	}
	switch w.HourResolution {
	case 1, 3, 6:
	default:
		return errors.NewConfigurationError("WEATHER_HOUR_RESOLUTION must be one of: 1, 3, 6", nil)
	}
	if w.StaleTimeoutMinutes < 1 || w.StaleTimeoutMinutes > maxStaleMinutes {
		return errors.NewConfigurationError("WEATHER_STALE_TIMEOUT_MINUTES must be between 1 and 1440 minutes", nil)
	}
	return nil
}

func (d *DefaultTownConfig) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewConfigurationError("DEFAULT_TOWN_NAME cannot be empty", nil)
	}
	if d.Latitude < -90 || d.Latitude > 90 {
		return errors.NewConfigurationError("DEFAULT_TOWN_LATITUDE must be between -90 and 90", nil)
	}
	if d.Longitude < -180 || d.Longitude > 180 {
		return errors.NewConfigurationError("DEFAULT_TOWN_LONGITUDE must be between -180 and 180", nil)
	}
	if strings.TrimSpace(d.Address) == "" {
		return errors.NewConfigurationError("DEFAULT_TOWN_ADDRESS cannot be empty", nil)
	}
	return nil
}

func (c *CacheConfig) Validate() error {
	if !c.Type.IsValid() {
		return errors.NewConfigurationError("CACHE_TYPE must be one of: memory, redis", nil)
	}
	if c.TTLMinutes < 1 || c.TTLMinutes > maxCacheTTLMinutes {
		return errors.NewConfigurationError("GEOCODE_CACHE_TTL_MINUTES must be between 1 and 10080 minutes", nil)
	}
	if c.NotFoundTTLMinutes < 0 || c.NotFoundTTLMinutes > c.TTLMinutes {
		return errors.NewConfigurationError("GEOCODE_NOT_FOUND_TTL_MINUTES must be between 0 and GEOCODE_CACHE_TTL_MINUTES", nil)
	}

	if c.Type == CacheTypeRedis {
		return c.Redis.Validate()
	}

	return nil
}

func (r *RedisConfig) Validate() error {
	if r.Addr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty when using Redis cache", nil)
	}
	if r.DB < 0 || r.DB > maxRedisDB {
		return errors.NewConfigurationError("REDIS_DB must be between 0 and 15", nil)
	}
	if r.DialTimeout < 1 {
		return errors.NewConfigurationError("REDIS_DIAL_TIMEOUT must be at least 1 second", nil)
	}
	if r.ReadTimeout < 1 {
		return errors.NewConfigurationError("REDIS_READ_TIMEOUT must be at least 1 second", nil)
	}
	if r.WriteTimeout < 1 {
		return errors.NewConfigurationError("REDIS_WRITE_TIMEOUT must be at least 1 second", nil)
	}
	return nil
}

func (a *AdminConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.Port < 1 || a.Port > maxPortNumber {
		return errors.NewConfigurationError("ADMIN_PORT must be between 1 and 65535", nil)
	}
	return nil
}

func (r *ReporterConfig) Validate() error {
	if r.IntervalMinutes < 1 || r.IntervalMinutes > maxReportMinutes {
		return errors.NewConfigurationError("REPORT_INTERVAL_MINUTES must be between 1 and 1440 minutes", nil)
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigurationError("LOG_LEVEL must be one of: debug, info, warn, error", nil)
	}
	if l.ToFile && l.FilePath == "" {
		return errors.NewConfigurationError("LOG_FILE_PATH cannot be empty when LOG_TO_FILE is set", nil)
	}
	return nil
}

func (h *HTTPConfig) Validate() error {
	if h.TimeoutSeconds < 1 || h.TimeoutSeconds > maxHTTPTimeout {
		return errors.NewConfigurationError("HTTP_TIMEOUT_SECONDS must be between 1 and 300 seconds", nil)
	}
	return nil
}

// MaskSecret hides all but the last four characters of a secret value
func MaskSecret(value string) string {
	if value == "" {
		return "<not set>"
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
