package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/ingest/internal/models"
)

type fixedStats models.Stats

func (f fixedStats) Stats() models.Stats { return models.Stats(f) }

type gaugeRecorder map[string]int64

func (g gaugeRecorder) SetGauge(name string, value int64) { g[name] = value }

func TestReportSetsGauges(t *testing.T) {
	gauges := gaugeRecorder{}
	r := NewStatsReporter(fixedStats{Total: 5, Processed: 2, Unprocessed: 3}, gauges, time.Minute)

	r.Report()

	assert.Equal(t, int64(5), gauges["records_total"])
	assert.Equal(t, int64(2), gauges["records_processed"])
	assert.Equal(t, int64(3), gauges["records_unprocessed"])
}

func TestRunStopsOnCancel(t *testing.T) {
	r := NewStatsReporter(fixedStats{}, gaugeRecorder{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reporter did not stop")
	}
}

func TestRunDisabled(t *testing.T) {
	r := NewStatsReporter(fixedStats{}, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))
}
