package external

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

const geocodeKeyPrefix = "geocode:"

// GeocoderCacheDecorator stores geocoder lookups in a CacheProvider. Found
// towns live for ttl, not-found answers for notFoundTTL. Transport failures
// are never cached.
type GeocoderCacheDecorator struct {
	geocoder    ports.Geocoder
	cache       ports.CacheProvider
	ttl         time.Duration
	notFoundTTL time.Duration
	logger      ports.Logger
	metrics     ports.CacheMetrics
}

// geocodeCacheEntry is the stored form; a found entry carries the GeoInfo fields
type geocodeCacheEntry struct {
	ports.GeoInfo
	NotFound bool `json:"not_found,omitempty"`
}

// NewGeocoderCacheDecorator wraps a geocoder with a lookup cache
func NewGeocoderCacheDecorator(geocoder ports.Geocoder, cache ports.CacheProvider, ttl time.Duration, logger ports.Logger) *GeocoderCacheDecorator {
	return &GeocoderCacheDecorator{
		geocoder: geocoder,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// WithMetrics records hits, misses and lookup latency on m
func (d *GeocoderCacheDecorator) WithMetrics(m ports.CacheMetrics) *GeocoderCacheDecorator {
	d.metrics = m
	return d
}

// WithNotFoundTTL remembers not-found answers for ttl; zero disables it
func (d *GeocoderCacheDecorator) WithNotFoundTTL(ttl time.Duration) *GeocoderCacheDecorator {
	d.notFoundTTL = ttl
	return d
}

// Resolve serves the lookup from cache when possible
func (d *GeocoderCacheDecorator) Resolve(ctx context.Context, town string) (*ports.GeoInfo, error) {
	key := geocodeCacheKey(town)

	start := time.Now()
	data, err := d.cache.Get(ctx, key)
	if d.metrics != nil {
		d.metrics.RecordOperation("get", time.Since(start))
	}
	if err == nil {
		var entry geocodeCacheEntry
		if jsonErr := json.Unmarshal(data, &entry); jsonErr == nil {
			d.recordLookup(true)
			if entry.NotFound {
				d.logger.Debug("Geocode not-found answer served from cache", ports.F("town", town))
				return nil, errors.NewNotFoundError("town not found (cached)")
			}
			d.logger.Debug("Geocode served from cache", ports.F("town", town))
			geo := entry.GeoInfo
			return &geo, nil
		}
		d.logger.Warn("Dropping undecodable geocode cache entry", ports.F("key", key))
		_ = d.cache.Delete(ctx, key)
	}
	d.recordLookup(false)

	geo, err := d.geocoder.Resolve(ctx, town)
	if err != nil {
		if errors.IsNotFoundError(err) && d.notFoundTTL > 0 {
			d.store(ctx, town, key, geocodeCacheEntry{NotFound: true}, d.notFoundTTL)
		}
		return nil, err
	}

	d.store(ctx, town, key, geocodeCacheEntry{GeoInfo: *geo}, d.ttl)
	return geo, nil
}

func (d *GeocoderCacheDecorator) store(ctx context.Context, town, key string, entry geocodeCacheEntry, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		d.logger.Warn("Failed to encode geocode result", ports.F("town", town), ports.F("error", err))
		return
	}
	start := time.Now()
	if err := d.cache.Set(ctx, key, data, ttl); err != nil {
		d.logger.Warn("Failed to cache geocode result", ports.F("town", town), ports.F("error", err))
	}
	if d.metrics != nil {
		d.metrics.RecordOperation("set", time.Since(start))
	}
}

// GetProviderName returns the wrapped geocoder name with caching indication
func (d *GeocoderCacheDecorator) GetProviderName() string {
	return "cached(" + d.geocoder.GetProviderName() + ")"
}

func (d *GeocoderCacheDecorator) recordLookup(hit bool) {
	if d.metrics == nil {
		return
	}
	if hit {
		d.metrics.RecordHit()
	} else {
		d.metrics.RecordMiss()
	}
}

func geocodeCacheKey(town string) string {
	return geocodeKeyPrefix + url.PathEscape(strings.ToLower(strings.TrimSpace(town)))
}
