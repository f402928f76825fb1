// Package scheduler runs the periodic statistics report of the bot.
package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"meteobot.app/internal/core/chat"
	"meteobot.app/internal/core/meteo"
	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

// TownStatsSource exposes the town-weather cache size
type TownStatsSource interface {
	Stats() meteo.Stats
}

// PollerStatsSource exposes the chat poller bookkeeping
type PollerStatsSource interface {
	Stats() chat.Stats
}

// Reporter periodically logs the town cache size and poller state and
// mirrors them into the metrics gauges.
type Reporter struct {
	scheduler *gocron.Scheduler
	towns     TownStatsSource
	poller    PollerStatsSource
	metrics   ports.MetricsCollector
	logger    ports.Logger
	interval  time.Duration

	stopOnce sync.Once
}

type ReporterDependencies struct {
	Towns    TownStatsSource
	Poller   PollerStatsSource
	Metrics  ports.MetricsCollector
	Logger   ports.Logger
	Interval time.Duration
}

func NewReporter(deps ReporterDependencies) (*Reporter, error) {
	if deps.Towns == nil {
		return nil, errors.NewValidationError("town stats source is required")
	}
	if deps.Poller == nil {
		return nil, errors.NewValidationError("poller stats source is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}

	return &Reporter{
		scheduler: gocron.NewScheduler(time.UTC),
		towns:     deps.Towns,
		poller:    deps.Poller,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		interval:  deps.Interval,
	}, nil
}

// Start schedules the report and starts the underlying scheduler. The first
// report runs immediately.
func (r *Reporter) Start() error {
	minutes := int(r.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	if _, err := r.scheduler.Every(minutes).Minutes().Do(r.Report); err != nil {
		return errors.NewConfigurationError("failed to schedule statistics report", err)
	}

	r.scheduler.StartAsync()
	r.logger.Info("Statistics reporter started", ports.F("interval_minutes", minutes))
	return nil
}

// Report logs one statistics snapshot
func (r *Reporter) Report() {
	towns := r.towns.Stats()
	poller := r.poller.Stats()

	r.metrics.SetTownCacheSize(towns.Towns)
	r.metrics.SetKnownChats(poller.KnownChats)

	r.logger.Info("Bot statistics",
		ports.F("towns", towns.Towns),
		ports.F("valid_towns", towns.ValidTowns),
		ports.F("known_chats", poller.KnownChats),
		ports.F("poller_state", poller.State),
		ports.F("cursor", poller.Cursor))
}

// Stop stops the scheduler and cancels any future reports
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		r.scheduler.Stop()
		r.logger.Info("Statistics reporter stopped")
	})
}
