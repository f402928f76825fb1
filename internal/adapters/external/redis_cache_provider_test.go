package external

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/internal/config"
	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

// setupMockRedis creates a mock Redis server for testing
func setupMockRedis(t *testing.T) (*miniredis.Miniredis, *config.RedisConfig) {
	t.Helper()

	mockRedis := miniredis.RunT(t)

	redisConfig := &config.RedisConfig{
		Addr:         mockRedis.Addr(),
		DB:           0,
		DialTimeout:  5,
		ReadTimeout:  3,
		WriteTimeout: 3,
	}

	return mockRedis, redisConfig
}

func newTestRedisAdapter(t *testing.T) (*miniredis.Miniredis, *RedisCacheProviderAdapter) {
	t.Helper()

	mockRedis, redisConfig := setupMockRedis(t)
	adapter, err := NewRedisCacheProviderAdapter(redisConfig)
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return mockRedis, adapter
}

func TestRedisCacheProviderAdapter_NewRedisCacheProviderAdapter(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		adapter, err := NewRedisCacheProviderAdapter(nil)

		assert.Nil(t, adapter)
		assert.Equal(t, errors.ErrorTypeConfiguration, errors.TypeOf(err))
	})

	t.Run("Unreachable", func(t *testing.T) {
		mockRedis, redisConfig := setupMockRedis(t)
		mockRedis.Close()

		adapter, err := NewRedisCacheProviderAdapter(redisConfig)

		assert.Nil(t, adapter)
		assert.Equal(t, errors.ErrorTypeExternalAPI, errors.TypeOf(err))
	})
}

func TestRedisCacheProviderAdapter_Operations(t *testing.T) {
	mockRedis, adapter := newTestRedisAdapter(t)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		value := []byte(`{"latitude":55.8,"longitude":49.1,"address":"Kazan"}`)

		require.NoError(t, adapter.Set(ctx, "geocode:kazan", value, time.Minute))

		retrieved, err := adapter.Get(ctx, "geocode:kazan")
		require.NoError(t, err)
		assert.Equal(t, value, retrieved)
		assert.True(t, mockRedis.Exists("meteobot:geocode:kazan"), "keys are namespaced")
	})

	t.Run("GetNonExistentKey", func(t *testing.T) {
		retrieved, err := adapter.Get(ctx, "non-existent-key")

		assert.Nil(t, retrieved)
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, adapter.Set(ctx, "delete-key", []byte("value"), time.Minute))
		require.NoError(t, adapter.Delete(ctx, "delete-key"))

		_, err := adapter.Get(ctx, "delete-key")
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		require.NoError(t, adapter.Set(ctx, "ttl-key", []byte("value"), 100*time.Millisecond))

		// Fast-forward time in mock Redis
		mockRedis.FastForward(150 * time.Millisecond)

		_, err := adapter.Get(ctx, "ttl-key")
		assert.Error(t, err)
	})

	t.Run("ClearKeepsForeignKeys", func(t *testing.T) {
		require.NoError(t, mockRedis.Set("other-app:key", "keep"))
		require.NoError(t, adapter.Set(ctx, "geocode:moscow", []byte("x"), time.Minute))

		require.NoError(t, adapter.Clear(ctx))

		assert.False(t, mockRedis.Exists("meteobot:geocode:moscow"))
		assert.True(t, mockRedis.Exists("other-app:key"))
	})
}

func TestRedisCacheProviderAdapter_ValidationErrors(t *testing.T) {
	_, adapter := newTestRedisAdapter(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		operation func() error
	}{
		{"GetEmptyKey", func() error { _, err := adapter.Get(ctx, ""); return err }},
		{"SetEmptyKey", func() error { return adapter.Set(ctx, "", []byte("value"), time.Minute) }},
		{"SetNilValue", func() error { return adapter.Set(ctx, "key", nil, time.Minute) }},
		{"SetZeroTTL", func() error { return adapter.Set(ctx, "key", []byte("value"), 0) }},
		{"DeleteEmptyKey", func() error { return adapter.Delete(ctx, "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation()
			assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
		})
	}
}

func TestRedisCacheProviderAdapter_Metrics(t *testing.T) {
	_, adapter := newTestRedisAdapter(t)
	ctx := context.Background()

	// Initial stats should be zero
	stats := adapter.GetStats()
	assert.Equal(t, int64(0), stats.TotalOps)
	assert.Equal(t, float64(0), stats.HitRatio)

	require.NoError(t, adapter.Set(ctx, "metrics-key", []byte("value"), time.Minute))
	_, err := adapter.Get(ctx, "metrics-key")
	require.NoError(t, err)
	_, err = adapter.Get(ctx, "non-existent")
	assert.Error(t, err)
	_, err = adapter.Get(ctx, "metrics-key")
	require.NoError(t, err)

	// Check stats: 2 hits, 1 miss
	stats = adapter.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(3), stats.TotalOps)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio, 1e-9)
}

func TestRedisCacheProviderAdapter_CacheInterface(t *testing.T) {
	_, adapter := newTestRedisAdapter(t)

	var _ ports.CacheProvider = adapter
	var _ ports.CacheMetrics = adapter
}

func TestRedisCacheProviderAdapter_ContextCancellation(t *testing.T) {
	_, adapter := newTestRedisAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Get(ctx, "key")
	assert.Error(t, err)
	assert.Error(t, adapter.Set(ctx, "key", []byte("value"), time.Minute))
	assert.Error(t, adapter.Clear(ctx))
}

func TestRedisCacheProviderAdapter_Ping(t *testing.T) {
	mockRedis, adapter := newTestRedisAdapter(t)

	assert.NoError(t, adapter.Ping(context.Background()))

	mockRedis.Close()
	assert.Error(t, adapter.Ping(context.Background()))
}
