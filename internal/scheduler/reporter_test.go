package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteobot.app/internal/core/chat"
	"meteobot.app/internal/core/meteo"
	"meteobot.app/internal/mocks"
	"meteobot.app/pkg/errors"
)

type stubTowns struct{ stats meteo.Stats }

func (s stubTowns) Stats() meteo.Stats { return s.stats }

type stubPoller struct{ stats chat.Stats }

func (s stubPoller) Stats() chat.Stats { return s.stats }

func newTestReporter(t *testing.T) (*Reporter, *mocks.Logger, *mocks.Metrics) {
	t.Helper()

	logger := mocks.NewLogger()
	metrics := mocks.NewMetrics()
	reporter, err := NewReporter(ReporterDependencies{
		Towns:    stubTowns{meteo.Stats{Towns: 5, ValidTowns: 4}},
		Poller:   stubPoller{chat.Stats{State: "polling", Cursor: 1001, KnownChats: 3}},
		Metrics:  metrics,
		Logger:   logger,
		Interval: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(reporter.Stop)

	return reporter, logger, metrics
}

func TestNewReporter_RequiresDependencies(t *testing.T) {
	_, err := NewReporter(ReporterDependencies{})
	assert.True(t, errors.IsValidationError(err))
}

func TestReporter_Report(t *testing.T) {
	reporter, logger, metrics := newTestReporter(t)

	reporter.Report()

	snapshot := metrics.Snapshot()
	assert.Equal(t, 5, snapshot.TownCacheSize)
	assert.Equal(t, 3, snapshot.KnownChats)

	entries := logger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Bot statistics", entries[0].Message)
	assert.Equal(t, 4, entries[0].Fields["valid_towns"])
	assert.Equal(t, "polling", entries[0].Fields["poller_state"])
	assert.Equal(t, int64(1001), entries[0].Fields["cursor"])
}

func TestReporter_StartRunsFirstReportImmediately(t *testing.T) {
	reporter, logger, _ := newTestReporter(t)

	require.NoError(t, reporter.Start())

	assert.Eventually(t, func() bool {
		for _, msg := range logger.Messages("info") {
			if msg == "Bot statistics" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	reporter.Stop()
	reporter.Stop()
	assert.Contains(t, logger.Messages("info"), "Statistics reporter stopped")
}
