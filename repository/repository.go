package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/projections"
)

// Aggregate is what the repository needs from an aggregate root. The
// generic domain.Root satisfies it for every entity type.
type Aggregate interface {
	ID() string
	Type() string
	Version() int
	LoadFromHistory(events []domain.StoredEvent) error
	PendingEvents() []domain.Event
	Commit()
}

// EventSourced is the one repository shape shared by every entity type:
// A is the aggregate wrapper, R the read-model row. It is the sole path
// between callers and the event-sourcing core.
type EventSourced[A Aggregate, R any] struct {
	db            *gorm.DB
	store         eventstore.Store
	applier       *projections.Applier
	aggregateType string
	newAggregate  func(id string) A
}

// NewEventSourced creates a repository for one entity type.
func NewEventSourced[A Aggregate, R any](
	db *gorm.DB,
	store eventstore.Store,
	applier *projections.Applier,
	aggregateType string,
	newAggregate func(id string) A,
) *EventSourced[A, R] {
	return &EventSourced[A, R]{
		db:            db,
		store:         store,
		applier:       applier,
		aggregateType: aggregateType,
		newAggregate:  newAggregate,
	}
}

// Load replays a stream into a fresh aggregate. An empty stream means
// the aggregate does not exist.
func (r *EventSourced[A, R]) Load(ctx context.Context, id string) (A, error) {
	var zero A

	events, err := r.store.Load(ctx, id)
	if err != nil {
		return zero, err
	}
	if len(events) == 0 {
		return zero, fmt.Errorf("%s %s: %w", r.aggregateType, id, domain.ErrNotFound)
	}

	aggregate := r.newAggregate(id)
	if err := aggregate.LoadFromHistory(events); err != nil {
		return zero, err
	}

	return aggregate, nil
}

// Create persists a brand-new aggregate. Fails with ErrAlreadyExists if
// the stream already has events.
func (r *EventSourced[A, R]) Create(ctx context.Context, aggregate A) ([]domain.StoredEvent, error) {
	exists, err := r.store.Exists(ctx, aggregate.ID())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s %s: %w", r.aggregateType, aggregate.ID(), domain.ErrAlreadyExists)
	}

	return r.Save(ctx, aggregate)
}

// Save appends the aggregate's pending events with a version check and
// applies their projections in the same transaction. Any failure rolls
// back both, so the read model can never diverge from the log.
func (r *EventSourced[A, R]) Save(ctx context.Context, aggregate A) ([]domain.StoredEvent, error) {
	pending := aggregate.PendingEvents()
	if len(pending) == 0 {
		return nil, nil
	}

	expectedVersion := aggregate.Version() - len(pending)

	var stored []domain.StoredEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		stored, txErr = r.store.Append(ctx, tx, aggregate.ID(), pending, expectedVersion)
		if txErr != nil {
			return txErr
		}

		for _, event := range stored {
			if txErr = r.applier.Apply(ctx, tx, event); txErr != nil {
				return txErr
			}
		}

		return nil
	})
	if err != nil {
		// Two concurrent creators race past the Exists check; the loser
		// hits the constraint on version 1.
		if errors.Is(err, domain.ErrConcurrencyConflict) && expectedVersion == 0 {
			return nil, fmt.Errorf("%s %s: %w", r.aggregateType, aggregate.ID(), domain.ErrAlreadyExists)
		}
		return nil, err
	}

	aggregate.Commit()

	log.Info().
		Str("aggregate_id", aggregate.ID()).
		Str("aggregate_type", r.aggregateType).
		Int("version", aggregate.Version()).
		Int("events", len(stored)).
		Msg("Events saved")

	return stored, nil
}

// GetReadModel returns the projected row for one aggregate. Read-model
// queries never touch the event log.
func (r *EventSourced[A, R]) GetReadModel(ctx context.Context, id string) (*R, error) {
	var row R
	err := r.db.WithContext(ctx).Where("aggregate_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %s: %w", r.aggregateType, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &row, nil
}

// ListReadModels returns projected rows matching the column filter,
// newest first.
func (r *EventSourced[A, R]) ListReadModels(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]R, error) {
	query := r.db.WithContext(ctx).Model(new(R))
	if len(filter) > 0 {
		query = query.Where(filter)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []R
	if err := query.Offset(offset).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// GetEventHistory returns the raw stored events of a stream, for audit
// and debugging.
func (r *EventSourced[A, R]) GetEventHistory(ctx context.Context, id string) ([]domain.StoredEvent, error) {
	events, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%s %s: %w", r.aggregateType, id, domain.ErrNotFound)
	}

	return events, nil
}
