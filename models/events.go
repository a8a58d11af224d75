package models

import (
	"time"
)

// Event is a row in the append-only event log. ID is the global
// sequence; the composite unique index on (aggregate_id, version) is
// what turns a stale append into a constraint violation instead of a
// silent double-write.
type Event struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AggregateID   string    `gorm:"size:64;uniqueIndex:idx_events_stream_version,priority:1;index" json:"aggregate_id"`
	AggregateType string    `gorm:"size:32;index" json:"aggregate_type"`
	EventType     string    `gorm:"size:64" json:"event_type"`
	Data          []byte    `gorm:"type:jsonb" json:"data"`
	Metadata      []byte    `gorm:"type:jsonb" json:"metadata"`
	Version       int       `gorm:"uniqueIndex:idx_events_stream_version,priority:2" json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at"`
}
