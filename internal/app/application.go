package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"meteobot.app/internal/adapters/api"
	"meteobot.app/internal/adapters/infrastructure"
	"meteobot.app/internal/config"
	"meteobot.app/internal/core/chat"
	"meteobot.app/internal/core/meteo"
	"meteobot.app/internal/ports"
	"meteobot.app/internal/scheduler"
)

type Application struct {
	config *config.Config

	// Use Cases
	meteoUseCase *meteo.UseCase
	poller       *chat.Poller

	// Adapters
	adminServer   *api.HTTPServerAdapter
	reporter      *scheduler.Reporter
	healthChecker *infrastructure.SystemHealthChecker

	// Infrastructure
	deps         *DependencyContainer
	ports        *ports.ApplicationPorts
	shutdownOnce sync.Once
}

func NewApplication(cfg *config.Config) (*Application, error) {
	deps, err := NewDependencyContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}

	app, err := NewApplicationWithDependencies(cfg, deps)
	if err != nil {
		_ = deps.Cleanup()
		return nil, err
	}
	return app, nil
}

// NewApplicationWithDependencies creates an application with provided dependencies (for testing)
func NewApplicationWithDependencies(cfg *config.Config, depContainer *DependencyContainer) (*Application, error) {
	app := &Application{
		config: cfg,
		deps:   depContainer,
		ports:  depContainer.ApplicationPorts(),
	}

	if err := app.initializeUseCases(); err != nil {
		return nil, fmt.Errorf("initialize use cases: %w", err)
	}

	if err := app.initializeAdapters(); err != nil {
		return nil, fmt.Errorf("initialize adapters: %w", err)
	}

	return app, nil
}

func (a *Application) initializeUseCases() error {
	slog.Info("Initializing use cases...")

	meteoUseCase, err := meteo.NewUseCase(meteo.UseCaseDependencies{
		Geocoder:         a.ports.Geocoder,
		ForecastProvider: a.ports.ForecastProvider,
		Config:           a.ports.ConfigProvider,
		Logger:           a.ports.Logger,
		Metrics:          a.ports.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create meteo use case: %w", err)
	}
	a.meteoUseCase = meteoUseCase

	poller, err := chat.NewPoller(chat.PollerDependencies{
		Client:  a.ports.ChatClient,
		Answer:  a.meteoUseCase.GetWeather,
		Config:  a.ports.ConfigProvider,
		Logger:  a.ports.Logger,
		Metrics: a.ports.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create chat poller: %w", err)
	}
	a.poller = poller

	slog.Info("Use cases initialized successfully")
	return nil
}

func (a *Application) initializeAdapters() error {
	slog.Info("Initializing adapters...")

	a.healthChecker = infrastructure.NewSystemHealthChecker(infrastructure.SystemHealthCheckerConfig{
		CacheChecker:   a.deps.CacheHealthChecker(),
		ChatChecker:    infrastructure.NewChatHealthChecker(a.poller),
		ConfigProvider: a.ports.ConfigProvider,
	})

	reporter, err := scheduler.NewReporter(scheduler.ReporterDependencies{
		Towns:    a.meteoUseCase,
		Poller:   a.poller,
		Metrics:  a.ports.Metrics,
		Logger:   a.ports.Logger,
		Interval: time.Duration(a.config.Reporter.IntervalMinutes) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create statistics reporter: %w", err)
	}
	a.reporter = reporter

	adminConfig := a.ports.ConfigProvider.GetAdminConfig()
	if adminConfig.Enabled {
		metricsCollector := infrastructure.NewMetricsCollectorAdapter(infrastructure.MetricsCollectorConfig{
			Towns:        a.meteoUseCase,
			Poller:       a.poller,
			CacheMetrics: a.ports.CacheMetrics,
		})

		adminServer, err := api.NewHTTPServerAdapter(api.ServerOptions{
			Config:           api.ServerConfig{Port: adminConfig.Port},
			WeatherUseCase:   a.meteoUseCase,
			MetricsCollector: metricsCollector,
			HealthChecker:    a.healthChecker,
			GeocodeCache:     a.ports.GeocodeCache,
			Logger:           a.ports.Logger,
		})
		if err != nil {
			return fmt.Errorf("create admin HTTP adapter: %w", err)
		}
		a.adminServer = adminServer
	}

	slog.Info("Adapters initialized successfully", "admin_enabled", adminConfig.Enabled)
	return nil
}

// Run starts the reporter and the admin server, then polls the chat
// platform until ctx is cancelled. Resources are released before it returns.
func (a *Application) Run(ctx context.Context) error {
	slog.Info("Starting application...")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.reporter.Start(); err != nil {
		return fmt.Errorf("start statistics reporter: %w", err)
	}

	var wg sync.WaitGroup
	var adminErr error
	if a.adminServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.adminServer.Start(runCtx); err != nil {
				adminErr = err
				slog.Error("Admin HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	pollErr := a.poller.Run(runCtx)
	cancel()
	wg.Wait()

	if err := a.Shutdown(); err != nil {
		slog.Warn("Error during shutdown", "error", err)
	}

	if pollErr != nil {
		return fmt.Errorf("chat poller: %w", pollErr)
	}
	return adminErr
}

// Shutdown stops background work and closes backend connections. It is
// safe to call more than once.
func (a *Application) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		slog.Info("Shutting down application...")

		a.poller.Stop()
		a.reporter.Stop()

		if a.deps != nil {
			if cleanupErr := a.deps.Cleanup(); cleanupErr != nil {
				err = fmt.Errorf("release resources: %w", cleanupErr)
			}
		}

		slog.Info("Application shutdown complete")
	})
	return err
}

// Config returns the application configuration
func (a *Application) Config() *config.Config {
	return a.config
}

// GetRouter returns the admin Gin router, nil when the admin API is disabled
func (a *Application) GetRouter() *gin.Engine {
	if a.adminServer == nil {
		return nil
	}
	return a.adminServer.GetRouter()
}

// WeatherUseCase returns the town weather use case
func (a *Application) WeatherUseCase() *meteo.UseCase {
	return a.meteoUseCase
}

// Poller returns the chat poller
func (a *Application) Poller() *chat.Poller {
	return a.poller
}

// HealthChecker returns the aggregated health checker
func (a *Application) HealthChecker() *infrastructure.SystemHealthChecker {
	return a.healthChecker
}
