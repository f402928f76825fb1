package infrastructure

import (
	"context"

	"meteobot.app/internal/ports"
)

// SystemHealthChecker aggregates all health checks
type SystemHealthChecker struct {
	checkers       map[string]ports.HealthChecker
	configProvider ports.ConfigProvider
}

// SystemHealthCheckerConfig holds the configuration for creating a system health checker
type SystemHealthCheckerConfig struct {
	CacheChecker   ports.HealthChecker
	ChatChecker    ports.HealthChecker
	ConfigProvider ports.ConfigProvider
}

// NewSystemHealthChecker creates a new system health checker
func NewSystemHealthChecker(config SystemHealthCheckerConfig) *SystemHealthChecker {
	checkers := make(map[string]ports.HealthChecker)
	if config.CacheChecker != nil {
		checkers["cache"] = config.CacheChecker
	}
	if config.ChatChecker != nil {
		checkers["telegram"] = config.ChatChecker
	}

	return &SystemHealthChecker{
		checkers:       checkers,
		configProvider: config.ConfigProvider,
	}
}

// CheckAll performs health checks on all components
func (s *SystemHealthChecker) CheckAll(ctx context.Context) map[string]ports.HealthStatus {
	results := make(map[string]ports.HealthStatus, len(s.checkers)+1)

	for name, checker := range s.checkers {
		results[name] = checker.Check(ctx)
	}

	if s.configProvider != nil {
		meteo := s.configProvider.GetMeteoConfig()
		details := map[string]interface{}{
			"stale_timeout":   meteo.StaleTimeout.String(),
			"hour_resolution": meteo.HourResolution,
			"default_town":    meteo.DefaultTown.Name,
			"cache_type":      s.configProvider.GetCacheConfig().Type,
		}
		if meteo.Location != nil {
			details["timezone"] = meteo.Location.String()
		}
		results["config"] = ports.HealthStatus{
			Component: "config",
			Status:    statusHealthy,
			Details:   details,
		}
	}

	return results
}

// Healthy reports whether no component is unhealthy
func Healthy(results map[string]ports.HealthStatus) bool {
	for _, status := range results {
		if status.Status == statusUnhealthy {
			return false
		}
	}
	return true
}
