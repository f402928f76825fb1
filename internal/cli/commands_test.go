package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/internal/config"
	"meteobot.app/pkg/errors"
)

const testAddress = "Россия, Республика Татарстан, Казань"

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{
			BotToken:       "123456:telegram-secret",
			BaseURL:        baseURL,
			RetryInitialMs: 10,
			RetryMaxMs:     50,
		},
		Geocode: config.GeocodeConfig{APIKey: "geocode-secret", BaseURL: baseURL, Lang: "ru_RU"},
		Weather: config.WeatherConfig{
			BaseURL:             baseURL,
			Timezone:            "Europe/Moscow",
			ForecastDays:        2,
			HourResolution:      3,
			StaleTimeoutMinutes: 15,
		},
		DefaultTown: config.DefaultTownConfig{
			Name:      "Казань",
			Latitude:  55.8125,
			Longitude: 49.1221,
			Address:   testAddress,
		},
		Cache:    config.CacheConfig{Type: config.CacheTypeMemory, TTLMinutes: 60},
		Reporter: config.ReporterConfig{IntervalMinutes: 60},
		Logging:  config.LoggingConfig{Level: "info"},
		HTTP:     config.HTTPConfig{TimeoutSeconds: 5},
	}
}

func execute(t *testing.T, loader ConfigLoader, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(loader)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	cfg := testConfig("https://example.test")
	cfg.Cache.Redis.Password = "redis-password"

	out, err := execute(t, func() (*config.Config, error) { return cfg, nil }, "config")
	require.NoError(t, err)

	assert.NotContains(t, out, "telegram-secret")
	assert.NotContains(t, out, "geocode-secret")
	assert.NotContains(t, out, "redis-password")
	assert.Contains(t, out, config.MaskSecret("123456:telegram-secret"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	cache := decoded["Cache"].(map[string]interface{})
	assert.Equal(t, "memory", cache["Type"])

	assert.Equal(t, "123456:telegram-secret", cfg.Telegram.BotToken, "original config must stay untouched")
}

func TestConfigCommand_LoaderError(t *testing.T) {
	loader := func() (*config.Config, error) {
		return nil, errors.NewConfigurationError("TELEGRAM_BOT_TOKEN is required", nil)
	}

	_, err := execute(t, loader, "config")

	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestWeatherCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"GeoObjectCollection":{
			"metaDataProperty":{"GeocoderResponseMetaData":{"found":"1"}},
			"featureMember":[{"GeoObject":{
				"metaDataProperty":{"GeocoderMetaData":{"text":"Россия, Республика Татарстан, Казань"}},
				"Point":{"pos":"49.10 55.80"}}}]}}}`))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	out, err := execute(t, func() (*config.Config, error) { return cfg, nil }, "weather", "Казань")

	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Contains(t, out, "Ошибка получения прогноза погоды")
}

func TestWeatherCommand_RequiresTown(t *testing.T) {
	_, err := execute(t, func() (*config.Config, error) { return testConfig("https://example.test"), nil }, "weather")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("METEOBOT_CLI_TEST_VALUE=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("METEOBOT_CLI_TEST_VALUE") })

	opts := &options{envFile: path}
	require.NoError(t, opts.loadEnvFile())
	assert.Equal(t, "loaded", os.Getenv("METEOBOT_CLI_TEST_VALUE"))

	missing := &options{envFile: filepath.Join(t.TempDir(), "missing.env")}
	assert.NoError(t, missing.loadEnvFile())
}
