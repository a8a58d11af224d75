package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"example.com/stayhub/services/reservation/eventstore"
)

var readEventsCmd = &cobra.Command{
	Use:   "read_events [stream-id]",
	Short: "Print the event history of a stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runReadEvents,
}

func init() {
	rootCmd.AddCommand(readEventsCmd)
}

func runReadEvents(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	store := eventstore.NewGormStore(db)
	events, err := store.Load(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events found for stream %s", args[0])
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return err
		}
	}

	return nil
}
