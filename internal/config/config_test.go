package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/pkg/errors"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Clearenv()
	require.NoError(t, os.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token"))
	require.NoError(t, os.Setenv("GEOCODE_API_KEY", "test-geocode-key"))
}

func TestLoadConfig(t *testing.T) {
	t.Run("RequiredFieldsMissing", func(t *testing.T) {
		os.Clearenv()

		config, err := LoadConfig()

		assert.Error(t, err)
		assert.Nil(t, config)
		assert.True(t, errors.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
	})

	t.Run("GeocodeKeyMissing", func(t *testing.T) {
		os.Clearenv()
		require.NoError(t, os.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token"))

		config, err := LoadConfig()

		assert.Error(t, err)
		assert.Nil(t, config)
		assert.Contains(t, err.Error(), "GEOCODE_API_KEY is required")
	})

	t.Run("DefaultValues", func(t *testing.T) {
		setRequiredEnv(t)

		config, err := LoadConfig()

		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, "https://api.telegram.org", config.Telegram.BaseURL)
		assert.Equal(t, 30, config.Telegram.PollTimeout)
		assert.Equal(t, 500, config.Telegram.RetryInitialMs)
		assert.Equal(t, 30000, config.Telegram.RetryMaxMs)
		assert.Equal(t, "https://geocode-maps.yandex.ru", config.Geocode.BaseURL)
		assert.Equal(t, "ru_RU", config.Geocode.Lang)
		assert.Equal(t, "https://api.open-meteo.com", config.Weather.BaseURL)
		assert.Equal(t, "Europe/Moscow", config.Weather.Timezone)
		assert.Equal(t, 2, config.Weather.ForecastDays)
		assert.Equal(t, 3, config.Weather.HourResolution)
		assert.Equal(t, 15*time.Minute, config.Weather.StaleTimeout())
		assert.Equal(t, "Казань", config.DefaultTown.Name)
		assert.InDelta(t, 55.8125, config.DefaultTown.Latitude, 1e-9)
		assert.InDelta(t, 49.1221, config.DefaultTown.Longitude, 1e-9)
		assert.Equal(t, "Россия, Республика Татарстан (Татарстан), Казань", config.DefaultTown.Address)
		assert.Equal(t, CacheTypeMemory, config.Cache.Type)
		assert.Equal(t, 24*time.Hour, config.Cache.TTL())
		assert.Equal(t, 10*time.Minute, config.Cache.NotFoundTTL())
		assert.False(t, config.Admin.Enabled)
		assert.Equal(t, 60, config.Reporter.IntervalMinutes)
		assert.Equal(t, "info", config.Logging.Level)
		assert.Equal(t, 10*time.Second, config.HTTP.Timeout())
	})

	t.Run("CustomValues", func(t *testing.T) {
		setRequiredEnv(t)
		require.NoError(t, os.Setenv("TELEGRAM_BASE_URL", "http://localhost:8081"))
		require.NoError(t, os.Setenv("WEATHER_STALE_TIMEOUT_MINUTES", "5"))
		require.NoError(t, os.Setenv("WEATHER_TIMEZONE", "UTC"))
		require.NoError(t, os.Setenv("DEFAULT_TOWN_NAME", "Москва"))
		require.NoError(t, os.Setenv("CACHE_TYPE", "redis"))
		require.NoError(t, os.Setenv("REDIS_ADDR", "redis:6379"))
		require.NoError(t, os.Setenv("ADMIN_ENABLED", "true"))
		require.NoError(t, os.Setenv("ADMIN_PORT", "9090"))

		config, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8081", config.Telegram.BaseURL)
		assert.Equal(t, 5*time.Minute, config.Weather.StaleTimeout())
		assert.Equal(t, "Москва", config.DefaultTown.Name)
		assert.Equal(t, CacheTypeRedis, config.Cache.Type)
		assert.Equal(t, "redis:6379", config.Cache.Redis.Addr)
		assert.True(t, config.Admin.Enabled)
		assert.Equal(t, 9090, config.Admin.Port)

		loc, err := config.Weather.Location()
		require.NoError(t, err)
		assert.Equal(t, "UTC", loc.String())
	})

	t.Run("InvalidValues", func(t *testing.T) {
		tests := []struct {
			name        string
			key         string
			value       string
			errContains string
		}{
			{"BadTimezone", "WEATHER_TIMEZONE", "Mars/Olympus", "WEATHER_TIMEZONE"},
			{"BadResolution", "WEATHER_HOUR_RESOLUTION", "4", "WEATHER_HOUR_RESOLUTION"},
			{"BadCacheType", "CACHE_TYPE", "disk", "CACHE_TYPE"},
			{"BadWeatherURL", "WEATHER_BASE_URL", "ftp://example.com", "WEATHER_BASE_URL"},
			{"BadLatitude", "DEFAULT_TOWN_LATITUDE", "91", "DEFAULT_TOWN_LATITUDE"},
			{"BadLogLevel", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
			{"ZeroStaleTimeout", "WEATHER_STALE_TIMEOUT_MINUTES", "0", "WEATHER_STALE_TIMEOUT_MINUTES"},
			{"NegativeNotFoundTTL", "GEOCODE_NOT_FOUND_TTL_MINUTES", "-1", "GEOCODE_NOT_FOUND_TTL_MINUTES"},
			{"NotFoundTTLAboveTTL", "GEOCODE_NOT_FOUND_TTL_MINUTES", "2000", "GEOCODE_NOT_FOUND_TTL_MINUTES"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				setRequiredEnv(t)
				require.NoError(t, os.Setenv(tt.key, tt.value))

				config, err := LoadConfig()

				assert.Error(t, err)
				assert.Nil(t, config)
				assert.Contains(t, err.Error(), tt.errContains)
			})
		}
	})
}

func TestTelegramConfig_Validate(t *testing.T) {
	cfg := TelegramConfig{
		BotToken:       "token",
		BaseURL:        "https://api.telegram.org",
		PollTimeout:    30,
		RetryInitialMs: 1000,
		RetryMaxMs:     500,
	}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_RETRY_MAX_MS")
}

func TestRedisConfig_Validate(t *testing.T) {
	cfg := CacheConfig{
		Type:       CacheTypeRedis,
		TTLMinutes: 60,
		Redis:      RedisConfig{Addr: "localhost:6379", DB: 16, DialTimeout: 5, ReadTimeout: 3, WriteTimeout: 3},
	}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB must be between 0 and 15")
}

func TestCacheTypeFromString(t *testing.T) {
	assert.Equal(t, CacheTypeMemory, CacheTypeFromString("memory"))
	assert.Equal(t, CacheTypeRedis, CacheTypeFromString(" Redis "))
	assert.Equal(t, CacheTypeUnknown, CacheTypeFromString("disk"))
	assert.Equal(t, "redis", CacheTypeRedis.String())
	assert.False(t, CacheTypeUnknown.IsValid())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "<not set>", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("abc"))
	assert.Equal(t, "*****cdef", MaskSecret("123abcdef"))
}
