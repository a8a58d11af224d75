package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))

	return db
}

func makeEvent(streamID, eventType string) domain.Event {
	return domain.Event{
		AggregateID:   streamID,
		AggregateType: "reservation",
		Type:          eventType,
		Data:          []byte(`{"guest_name":"Ada"}`),
		OccurredAt:    time.Now().UTC(),
	}
}

func TestAppendAssignsContiguousVersions(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	stored, err := store.Append(ctx, db, "res-1", []domain.Event{
		makeEvent("res-1", "ReservationCreated"),
		makeEvent("res-1", "ReservationConfirmed"),
	}, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, 1, stored[0].Version)
	require.Equal(t, 2, stored[1].Version)
	require.Greater(t, stored[1].ID, stored[0].ID)

	loaded, err := store.Load(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "ReservationCreated", loaded[0].Type)
	require.JSONEq(t, `{"guest_name":"Ada"}`, string(loaded[0].Data))
}

func TestAppendConflictOnStaleVersion(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	_, err := store.Append(ctx, db, "res-1", []domain.Event{makeEvent("res-1", "ReservationCreated")}, 0)
	require.NoError(t, err)

	// A second writer with the same expected version collides on the
	// (aggregate_id, version) unique index.
	_, err = store.Append(ctx, db, "res-1", []domain.Event{makeEvent("res-1", "ReservationCancelled")}, 0)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// The stream is untouched by the failed append.
	loaded, err := store.Load(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestAppendDifferentStreamsDoNotConflict(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	_, err := store.Append(ctx, db, "res-1", []domain.Event{makeEvent("res-1", "ReservationCreated")}, 0)
	require.NoError(t, err)

	_, err = store.Append(ctx, db, "res-2", []domain.Event{makeEvent("res-2", "ReservationCreated")}, 0)
	require.NoError(t, err)
}

func TestUnpublishedFollowsGlobalOrder(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	// Interleave two streams; the global sequence spans both.
	_, err := store.Append(ctx, db, "res-1", []domain.Event{makeEvent("res-1", "ReservationCreated")}, 0)
	require.NoError(t, err)
	_, err = store.Append(ctx, db, "res-2", []domain.Event{makeEvent("res-2", "ReservationCreated")}, 0)
	require.NoError(t, err)
	_, err = store.Append(ctx, db, "res-1", []domain.Event{makeEvent("res-1", "ReservationConfirmed")}, 1)
	require.NoError(t, err)

	events, err := store.Unpublished(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		require.Greater(t, events[i].ID, events[i-1].ID)
	}

	// Resume beyond a checkpoint.
	tail, err := store.Unpublished(ctx, events[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, events[1].ID, tail[0].ID)

	// Limit bounds the batch.
	limited, err := store.Unpublished(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestExists(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "res-1")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = store.Append(ctx, db, "res-1", []domain.Event{makeEvent("res-1", "ReservationCreated")}, 0)
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "res-1")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestAppendEmptyIsNoOp(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)

	stored, err := store.Append(context.Background(), db, "res-1", nil, 0)
	require.NoError(t, err)
	require.Nil(t, stored)
}
