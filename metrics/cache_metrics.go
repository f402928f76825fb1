package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"meteobot.app/internal/ports"
)

type CacheMetricsCollector struct {
	Hits     *prometheus.CounterVec
	Misses   *prometheus.CounterVec
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	HitRatio *prometheus.GaugeVec
}

var (
	cacheCollector     *CacheMetricsCollector
	cacheCollectorOnce sync.Once
)

func getCacheCollector() *CacheMetricsCollector {
	cacheCollectorOnce.Do(func() {
		cacheCollector = &CacheMetricsCollector{
			Hits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meteobot_geocode_cache_hits_total",
					Help: "The total number of geocode cache hits",
				},
				[]string{"cache_type"},
			),
			Misses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meteobot_geocode_cache_misses_total",
					Help: "The total number of geocode cache misses",
				},
				[]string{"cache_type"},
			),
			Requests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meteobot_geocode_cache_requests_total",
					Help: "The total number of geocode cache requests",
				},
				[]string{"cache_type"},
			),
			Latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "meteobot_geocode_cache_duration_seconds",
					Help:    "Geocode cache operation duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"cache_type", "operation"},
			),
			HitRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "meteobot_geocode_cache_hit_ratio",
					Help: "Geocode cache hit ratio (hits/total requests)",
				},
				[]string{"cache_type"},
			),
		}
	})
	return cacheCollector
}

// CacheMetrics tracks geocode cache efficiency for one backend and mirrors it to Prometheus
type CacheMetrics struct {
	cacheType   string
	hits        int64
	misses      int64
	total       int64
	lastUpdated time.Time
	collector   *CacheMetricsCollector
	mu          sync.RWMutex
}

var _ ports.CacheMetrics = (*CacheMetrics)(nil)

func NewCacheMetrics(cacheType string) *CacheMetrics {
	return &CacheMetrics{
		cacheType: cacheType,
		collector: getCacheCollector(),
	}
}

func (m *CacheMetrics) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	m.total++
	m.lastUpdated = time.Now()
	m.collector.Hits.WithLabelValues(m.cacheType).Inc()
	m.collector.Requests.WithLabelValues(m.cacheType).Inc()
	m.updateHitRatio()
}

func (m *CacheMetrics) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	m.total++
	m.lastUpdated = time.Now()
	m.collector.Misses.WithLabelValues(m.cacheType).Inc()
	m.collector.Requests.WithLabelValues(m.cacheType).Inc()
	m.updateHitRatio()
}

func (m *CacheMetrics) RecordOperation(operation string, duration time.Duration) {
	m.collector.Latency.WithLabelValues(m.cacheType, operation).Observe(duration.Seconds())
}

// updateHitRatio updates the Prometheus hit ratio gauge.
// Must be called while holding the mutex.
func (m *CacheMetrics) updateHitRatio() {
	if m.total > 0 {
		ratio := float64(m.hits) / float64(m.total)
		m.collector.HitRatio.WithLabelValues(m.cacheType).Set(ratio)
	}
}

func (m *CacheMetrics) GetStats() ports.CacheStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hitRatio float64
	if m.total > 0 {
		hitRatio = float64(m.hits) / float64(m.total)
	}

	return ports.CacheStats{
		Hits:        m.hits,
		Misses:      m.misses,
		TotalOps:    m.total,
		HitRatio:    hitRatio,
		LastUpdated: m.lastUpdated,
	}
}

// CacheType returns the backend label the metrics are recorded under
func (m *CacheMetrics) CacheType() string {
	return m.cacheType
}
