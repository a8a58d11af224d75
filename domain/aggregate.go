package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Reducer folds a single event into the aggregate state and returns the
// next state. It must be a pure function: deterministic, no I/O, no
// randomness. Anything random (generated codes, ids) is computed at
// command time and carried inside the event payload.
type Reducer[S any] func(state S, eventType string, data json.RawMessage) (S, error)

// Root is the generic aggregate root. Concrete aggregates embed it with
// their own state type and reducer, and expose command methods that
// validate business rules before raising events.
type Root[S any] struct {
	id            string
	aggregateType string
	version       int
	state         S
	reduce        Reducer[S]
	pending       []Event
}

// NewRoot creates an empty root at version 0.
func NewRoot[S any](id, aggregateType string, initial S, reduce Reducer[S]) *Root[S] {
	return &Root[S]{
		id:            id,
		aggregateType: aggregateType,
		state:         initial,
		reduce:        reduce,
	}
}

// ID returns the stream id.
func (r *Root[S]) ID() string {
	return r.id
}

// Type returns the aggregate type.
func (r *Root[S]) Type() string {
	return r.aggregateType
}

// Version returns the version of the last event folded into the state.
func (r *Root[S]) Version() int {
	return r.version
}

// State returns the current state.
func (r *Root[S]) State() S {
	return r.state
}

// LoadFromHistory rebuilds the state by folding stored events in order.
// Events the reducer does not recognise are skipped with a warning; the
// version still advances so later appends use the correct expected
// version.
func (r *Root[S]) LoadFromHistory(events []StoredEvent) error {
	for _, e := range events {
		next, err := r.reduce(r.state, e.Type, e.Data)
		if err != nil {
			if errors.Is(err, ErrUnknownEventType) {
				log.Warn().
					Str("aggregate_id", r.id).
					Str("aggregate_type", r.aggregateType).
					Str("event_type", e.Type).
					Int("version", e.Version).
					Msg("Skipping unknown event type during replay")
				r.version = e.Version
				continue
			}
			return fmt.Errorf("failed to apply event %s v%d: %w", e.Type, e.Version, err)
		}
		r.state = next
		r.version = e.Version
	}
	return nil
}

// Raise marshals the payload, folds the event into the state and queues
// it for persistence. Commands call it only after their business checks
// have passed.
func (r *Root[S]) Raise(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	next, err := r.reduce(r.state, eventType, data)
	if err != nil {
		return fmt.Errorf("failed to apply event %s: %w", eventType, err)
	}

	r.state = next
	r.version++
	r.pending = append(r.pending, Event{
		AggregateID:   r.id,
		AggregateType: r.aggregateType,
		Type:          eventType,
		Version:       r.version,
		Data:          data,
		OccurredAt:    time.Now().UTC(),
	})

	return nil
}

// PendingEvents returns the events raised since the last load or commit.
func (r *Root[S]) PendingEvents() []Event {
	return r.pending
}

// Commit clears the pending events after the store has accepted them.
func (r *Root[S]) Commit() {
	r.pending = nil
}
