package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/backstage/services/ingest/config"
	"example.com/backstage/services/ingest/internal/api"
	"example.com/backstage/services/ingest/internal/events"
	"example.com/backstage/services/ingest/internal/messaging"
	"example.com/backstage/services/ingest/internal/metrics"
	"example.com/backstage/services/ingest/internal/scheduler"
	"example.com/backstage/services/ingest/internal/search"
	"example.com/backstage/services/ingest/internal/service"
	"example.com/backstage/services/ingest/internal/store"
	"example.com/backstage/services/ingest/internal/tracing"
)

var (
	serverPort      int
	disableNewRelic bool
	eventQueueSize  int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the HTTP API together with the event dispatcher and the stats reporter.
It shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (overrides config file)")
	serveCmd.Flags().BoolVar(&disableNewRelic, "disable-newrelic", false, "Disable New Relic monitoring")
	serveCmd.Flags().IntVar(&eventQueueSize, "event-queue-size", 256, "Maximum number of undelivered record events")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}
	if disableNewRelic {
		cfg.NewRelic.Enabled = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Environment).
		Bool("newrelic_enabled", cfg.NewRelic.Enabled).
		Msg("Initializing service components")

	collector := metrics.NewCollector()

	nrApp, err := tracing.NewApplication(cfg.NewRelic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize New Relic, continuing without tracing")
	}
	defer tracing.Shutdown(nrApp)

	dispatcher := events.NewDispatcher(eventQueueSize, collector, buildPublishers(ctx, cfg)...)
	dispatcher.Start()
	defer dispatcher.Stop()

	records := service.NewRecordService(store.NewRecordStore(), dispatcher, collector)
	server := api.NewServer(cfg, records, collector, nrApp)
	reporter := scheduler.NewStatsReporter(records, collector, cfg.Stats.ReportInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	g.Go(func() error {
		return reporter.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}

// buildPublishers returns the configured event publishers. A publisher that
// cannot be initialized is skipped so the API still starts.
func buildPublishers(ctx context.Context, cfg *config.Config) []events.Publisher {
	var publishers []events.Publisher

	if cfg.ServiceBus.ConnectionString != "" {
		sb, err := messaging.NewServiceBusPublisher(cfg.ServiceBus, cfg.Service.Name)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Azure Service Bus, continuing without event publishing")
		} else {
			log.Info().Str("queue", cfg.ServiceBus.QueueName).Msg("Publishing record events to Service Bus")
			publishers = append(publishers, sb)
		}
	}

	if cfg.Elastic.Enabled {
		indexer, err := search.NewElasticIndexer(cfg.Elastic)
		if err == nil {
			ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = indexer.EnsureIndex(ensureCtx)
			cancel()
		}
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		} else {
			log.Info().Str("index", config.FormatIndex(cfg.Elastic)).Msg("Indexing records in Elasticsearch")
			publishers = append(publishers, indexer)
		}
	}

	return publishers
}
