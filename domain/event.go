package domain

import (
	"encoding/json"
	"time"
)

// Event is a domain event raised by an aggregate that has not been
// persisted yet. Data is the JSON payload marshalled once at command
// time, so replay folds exactly the bytes that were stored.
type Event struct {
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Type          string            `json:"type"`
	Version       int               `json:"version"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// StoredEvent is an event as persisted in the log. ID is the global
// sequence number: strictly increasing across all streams, never reused.
type StoredEvent struct {
	ID            int64           `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	Data          json.RawMessage `json:"data"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
