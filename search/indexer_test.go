package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/metrics"
	"example.com/stayhub/services/reservation/models"
	"example.com/stayhub/services/reservation/relayer"
)

type indexed struct {
	index      string
	documentID string
}

type fakeIndexer struct {
	docs    []indexed
	failErr error
}

func (f *fakeIndexer) IndexDocument(ctx context.Context, index, documentID string, body []byte) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.docs = append(f.docs, indexed{index: index, documentID: documentID})
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))

	return db
}

func appendEvents(t *testing.T, db *gorm.DB, store eventstore.Store, streamID string, n int) []domain.StoredEvent {
	t.Helper()

	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{
			AggregateID:   streamID,
			AggregateType: "reservation",
			Type:          "ReservationCreated",
			Data:          []byte(`{"guest_name":"Ada"}`),
			OccurredAt:    time.Now().UTC(),
		}
	}

	stored, err := store.Append(context.Background(), db, streamID, events, 0)
	require.NoError(t, err)
	return stored
}

func TestIndexerProcessesBatch(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormStore(db)
	checkpoints := relayer.NewGormCheckpointStore(db)
	fake := &fakeIndexer{}

	stored := appendEvents(t, db, store, "res-1", 3)

	indexer := NewIndexer(store, checkpoints, fake, metrics.New(), "", 0)

	n, err := indexer.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, fake.docs, 3)
	require.Equal(t, ReservationEventsIndex, fake.docs[0].index)
	// Document ids are the global event ids, so reindexing overwrites.
	require.Equal(t, "1", fake.docs[0].documentID)

	cp, err := checkpoints.Get(context.Background(), DefaultIndexerID)
	require.NoError(t, err)
	require.Equal(t, stored[2].ID, cp)

	n, err = indexer.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestIndexerFailureKeepsCheckpoint(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormStore(db)
	checkpoints := relayer.NewGormCheckpointStore(db)
	fake := &fakeIndexer{failErr: errors.New("es unavailable")}

	appendEvents(t, db, store, "res-1", 2)

	indexer := NewIndexer(store, checkpoints, fake, metrics.New(), "", 0)

	_, err := indexer.ProcessBatch(context.Background())
	require.Error(t, err)

	cp, err := checkpoints.Get(context.Background(), DefaultIndexerID)
	require.NoError(t, err)
	require.EqualValues(t, 0, cp)

	fake.failErr = nil
	n, err := indexer.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestIndexerHasOwnCheckpoint(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormStore(db)
	checkpoints := relayer.NewGormCheckpointStore(db)
	fake := &fakeIndexer{}

	appendEvents(t, db, store, "res-1", 2)

	// The relayer having moved on does not affect the indexer.
	require.NoError(t, checkpoints.Advance(context.Background(), "event-relayer", 2))

	indexer := NewIndexer(store, checkpoints, fake, metrics.New(), "", 0)
	n, err := indexer.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
