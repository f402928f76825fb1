package mocks

import (
	"sync"

	"meteobot.app/internal/ports"
)

// LogEntry is a single message captured by Logger
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// Logger records log calls instead of writing them
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Debug(msg string, fields ...ports.Field) { l.record("debug", msg, fields) }
func (l *Logger) Info(msg string, fields ...ports.Field)  { l.record("info", msg, fields) }
func (l *Logger) Warn(msg string, fields ...ports.Field)  { l.record("warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...ports.Field) { l.record("error", msg, fields) }

func (l *Logger) record(level, msg string, fields []ports.Field) {
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: values})
}

// Entries returns a copy of everything logged so far
func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Messages returns the messages logged at the given level
func (l *Logger) Messages(level string) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Metrics records metric updates in plain counters
type Metrics struct {
	mu sync.Mutex

	LookupHits       int
	LookupMisses     int
	RefreshSuccesses int
	RefreshFailures  int
	Geocodes         map[string]int
	PollFailures     int
	Updates          int
	ReplyFailures    int
	TownCacheSize    int
	KnownChats       int
}

func NewMetrics() *Metrics {
	return &Metrics{Geocodes: make(map[string]int)}
}

func (m *Metrics) RecordTownLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.LookupHits++
	} else {
		m.LookupMisses++
	}
}

func (m *Metrics) RecordForecastRefresh(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.RefreshSuccesses++
	} else {
		m.RefreshFailures++
	}
}

func (m *Metrics) RecordGeocode(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Geocodes[result]++
}

func (m *Metrics) RecordPollFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PollFailures++
}

func (m *Metrics) RecordUpdates(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates += count
}

func (m *Metrics) RecordReplyFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplyFailures++
}

func (m *Metrics) SetTownCacheSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TownCacheSize = size
}

func (m *Metrics) SetKnownChats(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KnownChats = count
}

// Snapshot returns a copy safe to inspect while the owner keeps running
func (m *Metrics) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	geocodes := make(map[string]int, len(m.Geocodes))
	for k, v := range m.Geocodes {
		geocodes[k] = v
	}
	return Metrics{
		LookupHits:       m.LookupHits,
		LookupMisses:     m.LookupMisses,
		RefreshSuccesses: m.RefreshSuccesses,
		RefreshFailures:  m.RefreshFailures,
		Geocodes:         geocodes,
		PollFailures:     m.PollFailures,
		Updates:          m.Updates,
		ReplyFailures:    m.ReplyFailures,
		TownCacheSize:    m.TownCacheSize,
		KnownChats:       m.KnownChats,
	}
}

// Config is a static ports.ConfigProvider
type Config struct {
	Meteo  ports.MeteoConfig
	Poller ports.PollerConfig
	Admin  ports.AdminConfig
	Cache  ports.CacheConfig
}

func (c *Config) GetMeteoConfig() ports.MeteoConfig   { return c.Meteo }
func (c *Config) GetPollerConfig() ports.PollerConfig { return c.Poller }
func (c *Config) GetAdminConfig() ports.AdminConfig   { return c.Admin }
func (c *Config) GetCacheConfig() ports.CacheConfig   { return c.Cache }
