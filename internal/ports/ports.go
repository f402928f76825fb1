package ports

// ApplicationPorts aggregates all ports for dependency injection
type ApplicationPorts struct {
	// Meteo
	Geocoder         Geocoder
	ForecastProvider ForecastProvider

	// Chat
	ChatClient ChatClient

	// Cache
	GeocodeCache CacheProvider
	CacheMetrics CacheMetrics

	// Infrastructure
	ConfigProvider ConfigProvider
	Logger         Logger
	Metrics        MetricsCollector
}
