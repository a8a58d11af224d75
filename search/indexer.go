package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/metrics"
	"example.com/stayhub/services/reservation/relayer"
)

// ReservationEventsIndex holds one document per stored event.
const ReservationEventsIndex = "reservation-events"

// DefaultIndexerID is the checkpoint key of the search indexer. It is
// distinct from the relayer's, so the two consumers advance through the
// event sequence independently.
const DefaultIndexerID = "search-indexer"

// DocumentIndexer is the slice of the search client the indexer needs.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, documentID string, body []byte) error
}

// Indexer copies stored events into Elasticsearch. It trails the event
// log with its own checkpoint and is scheduled periodically by the
// worker.
type Indexer struct {
	store       eventstore.Store
	checkpoints relayer.CheckpointStore
	client      DocumentIndexer
	metrics     *metrics.Metrics
	indexerID   string
	batchSize   int
}

// eventDocument is the indexed shape of a stored event.
type eventDocument struct {
	ID            int64           `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	Data          json.RawMessage `json:"data"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewIndexer creates a search indexer.
func NewIndexer(store eventstore.Store, checkpoints relayer.CheckpointStore, client DocumentIndexer, m *metrics.Metrics, indexerID string, batchSize int) *Indexer {
	if indexerID == "" {
		indexerID = DefaultIndexerID
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Indexer{
		store:       store,
		checkpoints: checkpoints,
		client:      client,
		metrics:     m,
		indexerID:   indexerID,
		batchSize:   batchSize,
	}
}

// ProcessBatch indexes the next batch of events beyond the checkpoint.
// The document id is the event's global id, so reindexing after a
// partial failure overwrites rather than duplicates.
func (i *Indexer) ProcessBatch(ctx context.Context) (int, error) {
	checkpoint, err := i.checkpoints.Get(ctx, i.indexerID)
	if err != nil {
		return 0, err
	}

	events, err := i.store.Unpublished(ctx, checkpoint, i.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	for _, event := range events {
		body, err := json.Marshal(document(event))
		if err != nil {
			return 0, fmt.Errorf("failed to marshal event %d: %w", event.ID, err)
		}

		docID := strconv.FormatInt(event.ID, 10)
		if err := i.client.IndexDocument(ctx, ReservationEventsIndex, docID, body); err != nil {
			return 0, err
		}
	}

	lastID := events[len(events)-1].ID
	if err := i.checkpoints.Advance(ctx, i.indexerID, lastID); err != nil {
		return 0, err
	}

	i.metrics.IncrementCounterBy("events_indexed", int64(len(events)))
	i.metrics.SetGauge("indexer_checkpoint", lastID)

	log.Info().
		Str("indexer_id", i.indexerID).
		Int("events", len(events)).
		Int64("checkpoint", lastID).
		Msg("Indexed event batch")

	return len(events), nil
}

func document(event domain.StoredEvent) eventDocument {
	return eventDocument{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		Type:          event.Type,
		Version:       event.Version,
		Data:          event.Data,
		OccurredAt:    event.OccurredAt,
	}
}
