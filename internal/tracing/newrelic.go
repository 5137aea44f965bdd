package tracing

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/config"
)

const shutdownTimeout = 5 * time.Second

// NewApplication starts the New Relic agent. It returns a nil application
// when tracing is disabled; every helper in this package accepts that.
func NewApplication(cfg config.NewRelicConfig) (*newrelic.Application, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.LicenseKey == "" {
		log.Warn().Msg("New Relic license key not provided, tracing will be disabled")
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}

	return app, nil
}

// StartSegment opens a segment on the transaction carried by ctx.
// The returned func ends it and is safe to call when no transaction exists.
func StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	seg := txn.StartSegment(name)
	return seg.End
}

// NoticeError reports err on the transaction carried by ctx, if any
func NoticeError(ctx context.Context, err error) {
	if txn := newrelic.FromContext(ctx); txn != nil && err != nil {
		txn.NoticeError(err)
	}
}

// AddAttribute attaches a custom attribute to the transaction carried by ctx
func AddAttribute(ctx context.Context, key string, value any) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute(key, value)
	}
}

// Shutdown flushes pending data to New Relic
func Shutdown(app *newrelic.Application) {
	if app == nil {
		return
	}
	app.Shutdown(shutdownTimeout)
}
