package infrastructure

import (
	"context"

	"meteobot.app/internal/core/meteo"
	"meteobot.app/internal/ports"
)

// TownStatsSource exposes the town-weather cache size
type TownStatsSource interface {
	Stats() meteo.Stats
}

// MetricsCollectorAdapter aggregates runtime statistics for the admin API
type MetricsCollectorAdapter struct {
	towns        TownStatsSource
	poller       PollerStatsSource
	cacheMetrics ports.CacheMetrics
}

// MetricsCollectorConfig holds configuration for creating the metrics collector
type MetricsCollectorConfig struct {
	Towns        TownStatsSource
	Poller       PollerStatsSource
	CacheMetrics ports.CacheMetrics
}

// NewMetricsCollectorAdapter creates a new metrics collector adapter
func NewMetricsCollectorAdapter(config MetricsCollectorConfig) *MetricsCollectorAdapter {
	return &MetricsCollectorAdapter{
		towns:        config.Towns,
		poller:       config.Poller,
		cacheMetrics: config.CacheMetrics,
	}
}

// GetMetrics returns aggregated statistics from all monitored components
func (m *MetricsCollectorAdapter) GetMetrics(ctx context.Context) (map[string]interface{}, error) {
	metrics := map[string]interface{}{}

	if m.towns != nil {
		metrics["towns"] = m.towns.Stats()
	}

	if m.poller != nil {
		metrics["poller"] = m.poller.Stats()
	}

	if m.cacheMetrics != nil {
		cacheStats := m.cacheMetrics.GetStats()
		metrics["geocode_cache"] = map[string]interface{}{
			"hits":      cacheStats.Hits,
			"misses":    cacheStats.Misses,
			"total_ops": cacheStats.TotalOps,
			"hit_ratio": cacheStats.HitRatio,
			"updated":   cacheStats.LastUpdated,
		}
	}

	return metrics, nil
}
