package meteo

import (
	"context"
	"sync"
	"time"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

// UseCase owns the town-weather cache. Entries are created on first lookup
// and live for the lifetime of the process.
type UseCase struct {
	geocoder ports.Geocoder
	forecast ports.ForecastProvider
	config   ports.ConfigProvider
	logger   ports.Logger
	metrics  ports.MetricsCollector
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*TownEntry
	// resolving holds one channel per town key whose geocoder lookup is in flight
	resolving map[string]chan struct{}
}

type UseCaseDependencies struct {
	Geocoder         ports.Geocoder
	ForecastProvider ports.ForecastProvider
	Config           ports.ConfigProvider
	Logger           ports.Logger
	Metrics          ports.MetricsCollector
	// Clock defaults to time.Now
	Clock func() time.Time
}

func NewUseCase(deps UseCaseDependencies) (*UseCase, error) {
	if deps.Geocoder == nil {
		return nil, errors.NewValidationError("geocoder is required")
	}
	if deps.ForecastProvider == nil {
		return nil, errors.NewValidationError("forecast provider is required")
	}
	if deps.Config == nil {
		return nil, errors.NewValidationError("config is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &UseCase{
		geocoder: deps.Geocoder,
		forecast: deps.ForecastProvider,
		config:   deps.Config,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		now:      clock,
		entries:  make(map[string]*TownEntry),

		resolving: make(map[string]chan struct{}),
	}, nil
}

// GetWeather returns the formatted forecast reply for a raw town name.
// It never fails: unknown towns fall back to the default town and fetch
// errors produce FetchErrorReply.
func (uc *UseCase) GetWeather(ctx context.Context, townRaw string) string {
	cfg := uc.config.GetMeteoConfig()
	town := NormalizeTown(townRaw)

	key, entry := uc.lookup(ctx, town, cfg.DefaultTown)

	entry.refresh.Lock()
	defer entry.refresh.Unlock()

	now := uc.now()
	entry.mu.RLock()
	needsRefresh := entry.NeedsRefresh(now, cfg.StaleTimeout)
	lat, lon := entry.Geo.Latitude, entry.Geo.Longitude
	entry.mu.RUnlock()

	if needsRefresh {
		result, err := uc.forecast.Fetch(ctx, lat, lon)
		if err != nil {
			uc.metrics.RecordForecastRefresh(false)
			uc.logger.Error("Failed to refresh forecast",
				ports.F("town", key),
				ports.F("error", err))
			return FetchErrorReply
		}
		uc.metrics.RecordForecastRefresh(true)

		entry.mu.Lock()
		entry.Apply(result, now)
		valid := entry.Valid
		entry.mu.Unlock()

		if !valid {
			uc.logger.Warn("Forecast response carried no time buckets",
				ports.F("town", key),
				ports.F("temperature_len", len(result.Forecast.Temperature)),
				ports.F("rain_len", len(result.Forecast.Rain)),
				ports.F("snowfall_len", len(result.Forecast.Snowfall)))
		}
		uc.logger.Debug("Forecast refreshed", ports.F("town", key))
	}

	local := now
	if cfg.Location != nil {
		local = now.In(cfg.Location)
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.Format(local, cfg.HourResolution)
}

// lookup returns the cache entry for a town, creating it through the
// geocoder or substituting the default town when geocoding fails.
func (uc *UseCase) lookup(ctx context.Context, town Town, def ports.DefaultTownConfig) (string, *TownEntry) {
	if !town.IsEmpty() {
		entry, err := uc.resolve(ctx, town)
		if err == nil {
			return town.Key, entry
		}

		if errors.IsNotFoundError(err) {
			uc.metrics.RecordGeocode(ports.GeocodeResultNotFound)
		} else {
			uc.metrics.RecordGeocode(ports.GeocodeResultError)
		}
		uc.logger.Warn("Town not resolved, using default town",
			ports.F("town", town.Key),
			ports.F("default_town", def.Name),
			ports.F("error", err))
	}

	defKey := NormalizeTown(def.Name).Key
	return defKey, uc.getOrCreate(defKey, ports.GeoInfo{
		Latitude:  def.Latitude,
		Longitude: def.Longitude,
		Address:   def.Address,
	})
}

// resolve returns the entry for a non-empty town, calling the geocoder at
// most once at a time per key. Callers that arrive while a lookup is in
// flight wait for it and then re-check the cache.
func (uc *UseCase) resolve(ctx context.Context, town Town) (*TownEntry, error) {
	for {
		uc.mu.Lock()
		if entry, ok := uc.entries[town.Key]; ok {
			uc.mu.Unlock()
			uc.metrics.RecordTownLookup(true)
			return entry, nil
		}
		wait, inFlight := uc.resolving[town.Key]
		if !inFlight {
			done := make(chan struct{})
			uc.resolving[town.Key] = done
			uc.mu.Unlock()
			return uc.resolveOnce(ctx, town, done)
		}
		uc.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (uc *UseCase) resolveOnce(ctx context.Context, town Town, done chan struct{}) (*TownEntry, error) {
	uc.metrics.RecordTownLookup(false)
	geo, err := uc.geocoder.Resolve(ctx, town.Name)

	uc.mu.Lock()
	defer func() {
		delete(uc.resolving, town.Key)
		close(done)
		uc.mu.Unlock()
	}()

	if err != nil {
		return nil, err
	}

	uc.metrics.RecordGeocode(ports.GeocodeResultFound)
	uc.logger.Info("Town resolved",
		ports.F("town", town.Key),
		ports.F("address", geo.Address),
		ports.F("latitude", geo.Latitude),
		ports.F("longitude", geo.Longitude))
	return uc.getOrCreateLocked(town.Key, *geo), nil
}

func (uc *UseCase) getOrCreate(key string, geo ports.GeoInfo) *TownEntry {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.getOrCreateLocked(key, geo)
}

func (uc *UseCase) getOrCreateLocked(key string, geo ports.GeoInfo) *TownEntry {
	if entry, ok := uc.entries[key]; ok {
		return entry
	}
	entry := newTownEntry(geo)
	uc.entries[key] = entry
	uc.metrics.SetTownCacheSize(len(uc.entries))
	return entry
}

// Stats reports the number of cached towns
func (uc *UseCase) Stats() Stats {
	uc.mu.Lock()
	entries := make([]*TownEntry, 0, len(uc.entries))
	for _, entry := range uc.entries {
		entries = append(entries, entry)
	}
	uc.mu.Unlock()

	stats := Stats{Towns: len(entries)}
	for _, entry := range entries {
		entry.mu.RLock()
		if entry.Valid {
			stats.ValidTowns++
		}
		entry.mu.RUnlock()
	}
	return stats
}

// Size returns the number of cached towns
func (uc *UseCase) Size() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.entries)
}
