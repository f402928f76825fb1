package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"meteobot.app/internal/adapters/external"
	"meteobot.app/internal/adapters/infrastructure"
	"meteobot.app/internal/config"
	"meteobot.app/internal/ports"
	"meteobot.app/metrics"
	"meteobot.app/pkg/logger"
)

// DependencyContainer builds and owns the adapters behind every port
type DependencyContainer struct {
	config *config.Config
	ports  *ports.ApplicationPorts

	cacheChecker *infrastructure.CacheHealthChecker
	fileLogger   *infrastructure.FileLoggerAdapter
	closers      []func() error
}

func NewDependencyContainer(cfg *config.Config) (*DependencyContainer, error) {
	container := &DependencyContainer{config: cfg}

	if err := container.initializePorts(); err != nil {
		_ = container.Cleanup()
		return nil, fmt.Errorf("initialize ports: %w", err)
	}

	return container, nil
}

func (c *DependencyContainer) initializeLogger() ports.Logger {
	level := logger.ParseLevel(c.config.Logging.Level)
	base := logger.NewWithLevel(level)
	base.SetDefault()

	var log ports.Logger = infrastructure.NewSlogLoggerAdapter(base.Logger)

	if c.config.Logging.ToFile {
		fileLogger, err := infrastructure.NewFileLoggerAdapter(c.config.Logging.FilePath, level)
		if err != nil {
			slog.Warn("Failed to create file logger, logging to stdout only", "error", err)
			return log
		}
		c.fileLogger = fileLogger
		c.closers = append(c.closers, fileLogger.Close)
		slog.Info("File logging enabled", "path", c.config.Logging.FilePath)
		log = infrastructure.NewMultiLogger(log, fileLogger)
	}

	return log
}

func (c *DependencyContainer) initializePorts() error {
	log := c.initializeLogger()
	log.Info("Initializing ports...")

	configProvider, err := infrastructure.NewConfigProviderAdapter(c.config)
	if err != nil {
		return fmt.Errorf("create config provider: %w", err)
	}

	cacheFactory := external.NewCacheProviderFactory()
	geocodeCache, err := cacheFactory.CreateCacheProvider(&c.config.Cache)
	if err != nil {
		log.Error("Failed to create cache provider", ports.F("error", err))
		return fmt.Errorf("create cache provider: %w", err)
	}

	var pinger infrastructure.Pinger
	if redisCache, ok := geocodeCache.(*external.RedisCacheProviderAdapter); ok {
		pinger = redisCache
		c.closers = append(c.closers, redisCache.Close)
	}
	c.cacheChecker = infrastructure.NewCacheHealthChecker(c.config.Cache.Type.String(), pinger)

	log.Info("Cache provider initialized",
		ports.F("type", c.config.Cache.Type.String()),
		ports.F("ttl", c.config.Cache.TTL().String()))

	cacheMetrics := metrics.NewCacheMetrics(c.config.Cache.Type.String())
	httpClient := &http.Client{Timeout: c.config.HTTP.Timeout()}

	var geocoder ports.Geocoder = external.NewYandexGeocoderAdapter(external.YandexGeocoderParams{
		APIKey:  c.config.Geocode.APIKey,
		BaseURL: c.config.Geocode.BaseURL,
		Lang:    c.config.Geocode.Lang,
		Client:  httpClient,
		Logger:  log,
	})
	geocoder = external.NewGeocoderCacheDecorator(geocoder, geocodeCache, c.config.Cache.TTL(), log).
		WithMetrics(cacheMetrics).
		WithNotFoundTTL(c.config.Cache.NotFoundTTL())

	var forecast ports.ForecastProvider = external.NewOpenMeteoProviderAdapter(external.OpenMeteoProviderParams{
		BaseURL:        c.config.Weather.BaseURL,
		Timezone:       c.config.Weather.Timezone,
		ForecastDays:   c.config.Weather.ForecastDays,
		HourResolution: c.config.Weather.HourResolution,
		Client:         httpClient,
		Logger:         log,
	})

	if c.config.Weather.EnableLogging {
		geocoder = external.NewGeocoderLoggingDecorator(geocoder, log)
		forecast = external.NewForecastProviderLoggingDecorator(forecast, log)
		log.Info("Upstream request logging enabled")
	}

	chatClient := external.NewTelegramClientAdapter(external.TelegramClientParams{
		Token:       c.config.Telegram.BotToken,
		BaseURL:     c.config.Telegram.BaseURL,
		PollTimeout: c.config.Telegram.PollTimeout,
		Logger:      log,
	})

	c.ports = &ports.ApplicationPorts{
		Geocoder:         geocoder,
		ForecastProvider: forecast,
		ChatClient:       chatClient,
		GeocodeCache:     geocodeCache,
		CacheMetrics:     cacheMetrics,
		ConfigProvider:   configProvider,
		Logger:           log,
		Metrics:          metrics.NewBotMetrics(),
	}

	log.Info("Ports initialized successfully",
		ports.F("geocoder", geocoder.GetProviderName()),
		ports.F("forecast", forecast.GetProviderName()))
	return nil
}

func (c *DependencyContainer) ApplicationPorts() *ports.ApplicationPorts {
	return c.ports
}

// CacheHealthChecker reports on the geocode cache backend
func (c *DependencyContainer) CacheHealthChecker() *infrastructure.CacheHealthChecker {
	return c.cacheChecker
}

// Cleanup releases backend connections and log files
func (c *DependencyContainer) Cleanup() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

// NewDependencyContainerWithPorts wraps prebuilt ports, used by tests
func NewDependencyContainerWithPorts(cfg *config.Config, applicationPorts *ports.ApplicationPorts) *DependencyContainer {
	return &DependencyContainer{
		config:       cfg,
		ports:        applicationPorts,
		cacheChecker: infrastructure.NewCacheHealthChecker(cfg.Cache.Type.String(), nil),
	}
}
