package repository

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
	"example.com/stayhub/services/reservation/domain/reservation"
	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/models"
	"example.com/stayhub/services/reservation/projections"
)

type testEnv struct {
	db    *gorm.DB
	store eventstore.Store
	repo  *EventSourced[*reservation.Reservation, models.Reservation]
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))

	store := eventstore.NewGormStore(db)
	applier := projections.NewApplier()
	projections.RegisterReservation(applier)

	repo := NewEventSourced[*reservation.Reservation, models.Reservation](
		db, store, applier, reservation.AggregateType,
		func(id string) *reservation.Reservation { return reservation.New(id) },
	)

	return testEnv{db: db, store: store, repo: repo}
}

func newReservation(t *testing.T, id string) *reservation.Reservation {
	t.Helper()

	r, err := reservation.Create(id, reservation.Details{
		GuestName: "Ada Lovelace",
		UnitID:    "unit-12",
		CheckIn:   time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2026, 9, 5, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return r
}

func TestCreateAppendsAndProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stored, err := env.repo.Create(ctx, newReservation(t, "res-1"))
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// The append and the projection committed together.
	events, err := env.store.Load(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	row, err := env.repo.GetReadModel(ctx, "res-1")
	require.NoError(t, err)
	require.Equal(t, 1, row.Version)
	require.Equal(t, reservation.StatusPending, row.Status)
	require.Equal(t, "Ada Lovelace", row.GuestName)
}

func TestCreateExistingFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repo.Create(ctx, newReservation(t, "res-1"))
	require.NoError(t, err)

	_, err = env.repo.Create(ctx, newReservation(t, "res-1"))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLoadMissingStream(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.repo.Load(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadMutateSave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repo.Create(ctx, newReservation(t, "res-1"))
	require.NoError(t, err)

	agg, err := env.repo.Load(ctx, "res-1")
	require.NoError(t, err)
	require.NoError(t, agg.Confirm("ops@example.com"))

	stored, err := env.repo.Save(ctx, agg)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, 2, stored[0].Version)
	require.Empty(t, agg.PendingEvents())

	row, err := env.repo.GetReadModel(ctx, "res-1")
	require.NoError(t, err)
	require.Equal(t, 2, row.Version)
	require.Equal(t, reservation.StatusConfirmed, row.Status)
}

func TestConcurrentSaveConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repo.Create(ctx, newReservation(t, "res-1"))
	require.NoError(t, err)

	// Two writers load version 1 and issue conflicting commands.
	first, err := env.repo.Load(ctx, "res-1")
	require.NoError(t, err)
	second, err := env.repo.Load(ctx, "res-1")
	require.NoError(t, err)

	require.NoError(t, first.Confirm("ops@example.com"))
	require.NoError(t, second.Cancel("plans changed"))

	_, err = env.repo.Save(ctx, first)
	require.NoError(t, err)

	_, err = env.repo.Save(ctx, second)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// Exactly one event won version 2; the loser left no trace.
	events, err := env.store.Load(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, reservation.Confirmed, events[1].Type)

	row, err := env.repo.GetReadModel(ctx, "res-1")
	require.NoError(t, err)
	require.Equal(t, reservation.StatusConfirmed, row.Status)
	require.Equal(t, 2, row.Version)
}

func TestCreateRaceMapsToAlreadyExists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Both creators pass the existence check before either saves.
	first := newReservation(t, "res-1")
	second := newReservation(t, "res-1")

	_, err := env.repo.Save(ctx, first)
	require.NoError(t, err)

	_, err = env.repo.Save(ctx, second)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestProjectionFailureRollsBackAppend(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))

	store := eventstore.NewGormStore(db)
	applier := projections.NewApplier()
	applier.Register(reservation.AggregateType, reservation.Created,
		func(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
			return errors.New("projection exploded")
		})

	repo := NewEventSourced[*reservation.Reservation, models.Reservation](
		db, store, applier, reservation.AggregateType,
		func(id string) *reservation.Reservation { return reservation.New(id) },
	)

	ctx := context.Background()
	_, err = repo.Create(ctx, newReservation(t, "res-1"))
	require.Error(t, err)

	// The append rolled back with the projection.
	exists, err := store.Exists(ctx, "res-1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestListReadModels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repo.Create(ctx, newReservation(t, "res-1"))
	require.NoError(t, err)
	_, err = env.repo.Create(ctx, newReservation(t, "res-2"))
	require.NoError(t, err)

	agg, err := env.repo.Load(ctx, "res-2")
	require.NoError(t, err)
	require.NoError(t, agg.Cancel("plans changed"))
	_, err = env.repo.Save(ctx, agg)
	require.NoError(t, err)

	all, err := env.repo.ListReadModels(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	cancelled, err := env.repo.ListReadModels(ctx, map[string]interface{}{"status": reservation.StatusCancelled}, 10, 0)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	require.Equal(t, "res-2", cancelled[0].AggregateID)
}

func TestGetEventHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repo.GetEventHistory(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.repo.Create(ctx, newReservation(t, "res-1"))
	require.NoError(t, err)

	history, err := env.repo.GetEventHistory(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, reservation.Created, history[0].Type)
}
