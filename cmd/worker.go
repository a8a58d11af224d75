package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/messagebus"
	"example.com/stayhub/services/reservation/metrics"
	"example.com/stayhub/services/reservation/relayer"
	"example.com/stayhub/services/reservation/search"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that relays stored events to the message bus and indexes them into Elasticsearch`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	db, err := openDatabase()
	if err != nil {
		return err
	}

	store := eventstore.NewGormStore(db)
	checkpoints := relayer.NewGormCheckpointStore(db)
	metricsCollector := metrics.New()

	// The worker owns the bus connection; the relayer only publishes
	// on it.
	bus, err := messagebus.NewClient(cfg.ServiceBusConnStr, cfg.ServiceBusTopic)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close message bus")
		}
	}()

	eventRelayer := relayer.New(store, checkpoints, bus, metricsCollector, relayer.Config{
		PublisherID: cfg.RelayerPublisherID,
		BatchSize:   cfg.RelayerBatchSize,
		Interval:    cfg.RelayerInterval,
	})

	g.Go(func() error {
		eventRelayer.Start()
		<-ctx.Done()
		eventRelayer.Stop()
		return nil
	})

	// The search indexer runs on a scheduler and trails the log with
	// its own checkpoint. Elasticsearch being down degrades search, not
	// the worker.
	esClient, err := search.NewClient(search.Config{
		URL:      cfg.ElasticSearchURL,
		Username: cfg.ElasticSearchUsername,
		Password: cfg.ElasticSearchPassword,
		Prefix:   cfg.ElasticSearchPrefix,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search indexing")
	} else {
		if err := esClient.EnsureIndices(); err != nil {
			return err
		}

		indexer := search.NewIndexer(store, checkpoints, esClient, metricsCollector, cfg.IndexerID, cfg.IndexerBatchSize)

		g.Go(func() error {
			scheduler, err := gocron.NewScheduler()
			if err != nil {
				return err
			}

			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.IndexerInterval),
				gocron.NewTask(func() {
					if _, err := indexer.ProcessBatch(ctx); err != nil {
						log.Error().Err(err).Msg("Failed to index event batch")
					}
				}),
			)
			if err != nil {
				return err
			}

			scheduler.Start()
			log.Info().Dur("interval", cfg.IndexerInterval).Msg("Search indexer scheduled")

			<-ctx.Done()
			return scheduler.Shutdown()
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
