package infrastructure

import (
	"context"

	"meteobot.app/internal/core/chat"
	"meteobot.app/internal/ports"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// Pinger is implemented by cache backends that hold a connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheHealthChecker reports geocode cache backend availability
type CacheHealthChecker struct {
	cacheType string
	pinger    Pinger
}

// NewCacheHealthChecker creates a cache checker; a nil pinger means an in-process backend
func NewCacheHealthChecker(cacheType string, pinger Pinger) *CacheHealthChecker {
	return &CacheHealthChecker{cacheType: cacheType, pinger: pinger}
}

// Check pings the backend when it supports it
func (c *CacheHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "cache",
		Status:    statusHealthy,
		Details: map[string]interface{}{
			"type": c.cacheType,
		},
	}

	if c.pinger == nil {
		return status
	}

	if err := c.pinger.Ping(ctx); err != nil {
		// lookups fall through to the geocoder, so the bot keeps answering
		status.Status = statusDegraded
		status.Error = err.Error()
		status.Details["connected"] = false
		return status
	}
	status.Details["connected"] = true
	return status
}

// PollerStatsSource exposes the chat poller bookkeeping
type PollerStatsSource interface {
	Stats() chat.Stats
}

// ChatHealthChecker reports the chat poller connection state
type ChatHealthChecker struct {
	poller PollerStatsSource
}

// NewChatHealthChecker creates a new chat poller health checker
func NewChatHealthChecker(poller PollerStatsSource) *ChatHealthChecker {
	return &ChatHealthChecker{poller: poller}
}

// Check is healthy while the poller holds a connection
func (c *ChatHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "telegram",
		Details:   map[string]interface{}{},
	}

	if c.poller == nil {
		status.Status = statusUnhealthy
		status.Error = "chat poller is not available"
		return status
	}

	stats := c.poller.Stats()
	status.Details["state"] = stats.State
	status.Details["cursor"] = stats.Cursor
	status.Details["known_chats"] = stats.KnownChats

	if stats.State == chat.StateDisconnected.String() {
		status.Status = statusUnhealthy
		status.Error = "not connected to the chat platform"
		return status
	}
	status.Status = statusHealthy
	return status
}
