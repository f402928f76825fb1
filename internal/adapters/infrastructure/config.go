package infrastructure

import (
	"time"

	"meteobot.app/internal/config"
	"meteobot.app/internal/ports"
)

// ConfigProviderAdapter implements the ConfigProvider port
type ConfigProviderAdapter struct {
	config   *config.Config
	location *time.Location
}

// NewConfigProviderAdapter resolves the forecast timezone once so that every
// reader shares the same *time.Location.
func NewConfigProviderAdapter(cfg *config.Config) (*ConfigProviderAdapter, error) {
	loc, err := cfg.Weather.Location()
	if err != nil {
		return nil, err
	}
	return &ConfigProviderAdapter{
		config:   cfg,
		location: loc,
	}, nil
}

// GetMeteoConfig returns town-weather cache configuration
func (c *ConfigProviderAdapter) GetMeteoConfig() ports.MeteoConfig {
	return ports.MeteoConfig{
		StaleTimeout:   c.config.Weather.StaleTimeout(),
		HourResolution: c.config.Weather.HourResolution,
		Location:       c.location,
		DefaultTown: ports.DefaultTownConfig{
			Name:      c.config.DefaultTown.Name,
			Latitude:  c.config.DefaultTown.Latitude,
			Longitude: c.config.DefaultTown.Longitude,
			Address:   c.config.DefaultTown.Address,
		},
	}
}

// GetPollerConfig returns chat poller configuration. Text-less updates are
// answered as if the default town had been asked for.
func (c *ConfigProviderAdapter) GetPollerConfig() ports.PollerConfig {
	return ports.PollerConfig{
		RetryInitial: time.Duration(c.config.Telegram.RetryInitialMs) * time.Millisecond,
		RetryMax:     time.Duration(c.config.Telegram.RetryMaxMs) * time.Millisecond,
		DefaultText:  c.config.DefaultTown.Name,
	}
}

// GetAdminConfig returns admin server configuration
func (c *ConfigProviderAdapter) GetAdminConfig() ports.AdminConfig {
	return ports.AdminConfig{
		Enabled: c.config.Admin.Enabled,
		Port:    c.config.Admin.Port,
	}
}

// GetCacheConfig returns geocode lookup cache configuration
func (c *ConfigProviderAdapter) GetCacheConfig() ports.CacheConfig {
	return ports.CacheConfig{
		Type: c.config.Cache.Type.String(),
		TTL:  c.config.Cache.TTL(),
	}
}
