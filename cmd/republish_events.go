package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/stayhub/services/reservation/relayer"
)

var (
	republishFromEventID int64
	republishPublisherID string
)

var republishEventsCmd = &cobra.Command{
	Use:   "republish_events",
	Short: "Rewind a publisher checkpoint to force redelivery",
	Long: `Rewind a publisher checkpoint so the relayer or indexer re-emits every
event after the given id. Consumers deduplicate by event id, so
redelivery is safe.`,
	RunE: runRepublishEvents,
}

func init() {
	republishEventsCmd.Flags().Int64Var(&republishFromEventID, "from-event-id", 0, "event id to rewind the checkpoint to")
	republishEventsCmd.Flags().StringVar(&republishPublisherID, "publisher-id", "event-relayer", "checkpoint to rewind")
	rootCmd.AddCommand(republishEventsCmd)
}

func runRepublishEvents(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	checkpoints := relayer.NewGormCheckpointStore(db)
	if err := checkpoints.Reset(context.Background(), republishPublisherID, republishFromEventID); err != nil {
		return err
	}

	log.Info().
		Str("publisher_id", republishPublisherID).
		Int64("from_event_id", republishFromEventID).
		Msg("Checkpoint rewound, events after this id will be redelivered")

	return nil
}
