package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/internal/config"
	"meteobot.app/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{RetryInitialMs: 500, RetryMaxMs: 30000},
		Weather: config.WeatherConfig{
			Timezone:            "Europe/Moscow",
			HourResolution:      3,
			StaleTimeoutMinutes: 15,
		},
		DefaultTown: config.DefaultTownConfig{
			Name:      "Казань",
			Latitude:  55.8125,
			Longitude: 49.1221,
			Address:   "Россия, Республика Татарстан (Татарстан), Казань",
		},
		Cache: config.CacheConfig{Type: config.CacheTypeRedis, TTLMinutes: 60},
		Admin: config.AdminConfig{Enabled: true, Port: 9090},
	}
}

func TestConfigProviderAdapter(t *testing.T) {
	provider, err := NewConfigProviderAdapter(testConfig())
	require.NoError(t, err)

	t.Run("Meteo", func(t *testing.T) {
		meteo := provider.GetMeteoConfig()

		assert.Equal(t, 15*time.Minute, meteo.StaleTimeout)
		assert.Equal(t, 3, meteo.HourResolution)
		assert.Equal(t, "Europe/Moscow", meteo.Location.String())
		assert.Equal(t, "Казань", meteo.DefaultTown.Name)
		assert.Equal(t, 55.8125, meteo.DefaultTown.Latitude)
		assert.Equal(t, 49.1221, meteo.DefaultTown.Longitude)
		assert.Same(t, meteo.Location, provider.GetMeteoConfig().Location)
	})

	t.Run("Poller", func(t *testing.T) {
		poller := provider.GetPollerConfig()

		assert.Equal(t, 500*time.Millisecond, poller.RetryInitial)
		assert.Equal(t, 30*time.Second, poller.RetryMax)
		assert.Equal(t, "Казань", poller.DefaultText)
	})

	t.Run("AdminAndCache", func(t *testing.T) {
		assert.True(t, provider.GetAdminConfig().Enabled)
		assert.Equal(t, 9090, provider.GetAdminConfig().Port)
		assert.Equal(t, "redis", provider.GetCacheConfig().Type)
		assert.Equal(t, time.Hour, provider.GetCacheConfig().TTL)
	})
}

func TestConfigProviderAdapter_BadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Weather.Timezone = "Mars/Olympus"

	provider, err := NewConfigProviderAdapter(cfg)

	assert.Nil(t, provider)
	assert.True(t, errors.IsConfigurationError(err))
}
