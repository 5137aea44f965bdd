package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/internal/models"
)

// StatsSource provides the current record counts
type StatsSource interface {
	Stats() models.Stats
}

// GaugeSetter receives the reported counts
type GaugeSetter interface {
	SetGauge(name string, value int64)
}

// StatsReporter periodically publishes record counts as gauges and a log line
type StatsReporter struct {
	source   StatsSource
	gauges   GaugeSetter
	interval time.Duration
}

// NewStatsReporter creates a reporter. A non-positive interval disables it.
func NewStatsReporter(source StatsSource, gauges GaugeSetter, interval time.Duration) *StatsReporter {
	return &StatsReporter{
		source:   source,
		gauges:   gauges,
		interval: interval,
	}
}

// Run schedules the report job and blocks until ctx is cancelled
func (r *StatsReporter) Run(ctx context.Context) error {
	if r.interval <= 0 {
		log.Info().Msg("Stats reporter disabled")
		<-ctx.Done()
		return nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}

	_, err = s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.Report),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule stats report")
	}

	log.Info().Dur("interval", r.interval).Msg("Starting stats reporter")
	s.Start()

	<-ctx.Done()

	return s.Shutdown()
}

// Report takes one snapshot of the store
func (r *StatsReporter) Report() {
	stats := r.source.Stats()

	if r.gauges != nil {
		r.gauges.SetGauge("records_total", int64(stats.Total))
		r.gauges.SetGauge("records_processed", int64(stats.Processed))
		r.gauges.SetGauge("records_unprocessed", int64(stats.Unprocessed))
	}

	log.Info().
		Int("total", stats.Total).
		Int("processed", stats.Processed).
		Int("unprocessed", stats.Unprocessed).
		Msg("record stats")
}
