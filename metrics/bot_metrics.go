package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"meteobot.app/internal/ports"
)

type BotMetricsCollector struct {
	TownLookups       *prometheus.CounterVec
	ForecastRefreshes *prometheus.CounterVec
	GeocodeRequests   *prometheus.CounterVec
	PollFailures      prometheus.Counter
	Updates           prometheus.Counter
	ReplyFailures     prometheus.Counter
	TownCacheSize     prometheus.Gauge
	KnownChats        prometheus.Gauge
}

var (
	botCollector     *BotMetricsCollector
	botCollectorOnce sync.Once
)

func getBotCollector() *BotMetricsCollector {
	botCollectorOnce.Do(func() {
		botCollector = &BotMetricsCollector{
			TownLookups: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meteobot_town_lookups_total",
					Help: "Town weather cache lookups by result",
				},
				[]string{"result"},
			),
			ForecastRefreshes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meteobot_forecast_refreshes_total",
					Help: "Forecast refresh attempts by result",
				},
				[]string{"result"},
			),
			GeocodeRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meteobot_geocode_requests_total",
					Help: "Geocoder requests by result",
				},
				[]string{"result"},
			),
			PollFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "meteobot_poll_failures_total",
				Help: "Failed connect or poll cycles against the chat platform",
			}),
			Updates: promauto.NewCounter(prometheus.CounterOpts{
				Name: "meteobot_updates_total",
				Help: "Updates received from the chat platform",
			}),
			ReplyFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "meteobot_reply_failures_total",
				Help: "Replies the chat platform did not accept",
			}),
			TownCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "meteobot_town_cache_size",
				Help: "Towns currently held in the weather cache",
			}),
			KnownChats: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "meteobot_known_chats",
				Help: "Distinct chats the bot has answered",
			}),
		}
	})
	return botCollector
}

// BotMetrics implements ports.MetricsCollector on the process-wide Prometheus registry
type BotMetrics struct {
	collector *BotMetricsCollector
}

var _ ports.MetricsCollector = (*BotMetrics)(nil)

func NewBotMetrics() *BotMetrics {
	return &BotMetrics{collector: getBotCollector()}
}

func (m *BotMetrics) RecordTownLookup(hit bool) {
	m.collector.TownLookups.WithLabelValues(outcome(hit, "hit", "miss")).Inc()
}

func (m *BotMetrics) RecordForecastRefresh(success bool) {
	m.collector.ForecastRefreshes.WithLabelValues(outcome(success, "success", "failure")).Inc()
}

func (m *BotMetrics) RecordGeocode(result string) {
	m.collector.GeocodeRequests.WithLabelValues(result).Inc()
}

func (m *BotMetrics) RecordPollFailure() {
	m.collector.PollFailures.Inc()
}

func (m *BotMetrics) RecordUpdates(count int) {
	if count <= 0 {
		return
	}
	m.collector.Updates.Add(float64(count))
}

func (m *BotMetrics) RecordReplyFailure() {
	m.collector.ReplyFailures.Inc()
}

func (m *BotMetrics) SetTownCacheSize(size int) {
	m.collector.TownCacheSize.Set(float64(size))
}

func (m *BotMetrics) SetKnownChats(count int) {
	m.collector.KnownChats.Set(float64(count))
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
