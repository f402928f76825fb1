package infrastructure

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/internal/core/chat"
	"meteobot.app/internal/core/meteo"
	"meteobot.app/internal/mocks"
	"meteobot.app/internal/ports"
	"meteobot.app/metrics"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubPoller struct{ stats chat.Stats }

func (p stubPoller) Stats() chat.Stats { return p.stats }

type stubTowns struct{ stats meteo.Stats }

func (s stubTowns) Stats() meteo.Stats { return s.stats }

func TestCacheHealthChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("InProcess", func(t *testing.T) {
		status := NewCacheHealthChecker("memory", nil).Check(ctx)

		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "memory", status.Details["type"])
	})

	t.Run("RedisUp", func(t *testing.T) {
		status := NewCacheHealthChecker("redis", stubPinger{}).Check(ctx)

		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, true, status.Details["connected"])
	})

	t.Run("RedisDown", func(t *testing.T) {
		status := NewCacheHealthChecker("redis", stubPinger{err: stderrors.New("connection refused")}).Check(ctx)

		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "connection refused", status.Error)
	})
}

func TestChatHealthChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("Polling", func(t *testing.T) {
		status := NewChatHealthChecker(stubPoller{chat.Stats{State: "polling", Cursor: 42, KnownChats: 3}}).Check(ctx)

		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, int64(42), status.Details["cursor"])
	})

	t.Run("Disconnected", func(t *testing.T) {
		status := NewChatHealthChecker(stubPoller{chat.Stats{State: "disconnected"}}).Check(ctx)

		assert.Equal(t, "unhealthy", status.Status)
		assert.NotEmpty(t, status.Error)
	})

	t.Run("Missing", func(t *testing.T) {
		status := NewChatHealthChecker(nil).Check(ctx)

		assert.Equal(t, "unhealthy", status.Status)
	})
}

func TestSystemHealthChecker_CheckAll(t *testing.T) {
	loc, err := testConfig().Weather.Location()
	require.NoError(t, err)
	cfg := &mocks.Config{
		Meteo: ports.MeteoConfig{HourResolution: 3, Location: loc, DefaultTown: ports.DefaultTownConfig{Name: "Казань"}},
		Cache: ports.CacheConfig{Type: "memory"},
	}

	checker := NewSystemHealthChecker(SystemHealthCheckerConfig{
		CacheChecker:   NewCacheHealthChecker("memory", nil),
		ChatChecker:    NewChatHealthChecker(stubPoller{chat.Stats{State: "connected"}}),
		ConfigProvider: cfg,
	})

	results := checker.CheckAll(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, "healthy", results["cache"].Status)
	assert.Equal(t, "healthy", results["telegram"].Status)
	assert.Equal(t, "Europe/Moscow", results["config"].Details["timezone"])
	assert.Equal(t, "Казань", results["config"].Details["default_town"])
	assert.True(t, Healthy(results))

	results["telegram"] = ports.HealthStatus{Status: "unhealthy"}
	assert.False(t, Healthy(results))
}

func TestMetricsCollectorAdapter_GetMetrics(t *testing.T) {
	collector := NewMetricsCollectorAdapter(MetricsCollectorConfig{
		Towns:  stubTowns{meteo.Stats{Towns: 4, ValidTowns: 3}},
		Poller: stubPoller{chat.Stats{State: "polling", Cursor: 7, KnownChats: 2}},
	})

	result, err := collector.GetMetrics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, meteo.Stats{Towns: 4, ValidTowns: 3}, result["towns"])
	assert.Equal(t, chat.Stats{State: "polling", Cursor: 7, KnownChats: 2}, result["poller"])
	assert.NotContains(t, result, "geocode_cache")
}

func TestMetricsCollectorAdapter_GeocodeCache(t *testing.T) {
	cacheMetrics := metrics.NewCacheMetrics("infrastructure_test")
	cacheMetrics.RecordHit()
	cacheMetrics.RecordMiss()
	collector := NewMetricsCollectorAdapter(MetricsCollectorConfig{CacheMetrics: cacheMetrics})

	result, err := collector.GetMetrics(context.Background())

	require.NoError(t, err)
	cache, ok := result["geocode_cache"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), cache["hits"])
	assert.Equal(t, 0.5, cache["hit_ratio"])
}
