package eventstore

import (
	"context"

	"gorm.io/gorm"

	"example.com/stayhub/services/reservation/domain"
)

// Store is the interface for the append-only event log.
type Store interface {
	// Append assigns versions expectedVersion+1, +2, ... to the events
	// and inserts them inside the caller-supplied transaction, so the
	// append commits atomically with the caller's projections. Returns
	// domain.ErrConcurrencyConflict if any assigned version already
	// exists for the stream.
	Append(ctx context.Context, tx *gorm.DB, streamID string, events []domain.Event, expectedVersion int) ([]domain.StoredEvent, error)

	// Load returns all events for a stream ordered by version
	// ascending. An empty result means the stream does not exist.
	Load(ctx context.Context, streamID string) ([]domain.StoredEvent, error)

	// Unpublished returns events with a global id greater than afterID
	// ordered by global id ascending, bounded by limit. Used only by
	// relayer consumers, never for aggregate loading.
	Unpublished(ctx context.Context, afterID int64, limit int) ([]domain.StoredEvent, error)

	// Exists reports whether a stream has at least one event.
	Exists(ctx context.Context, streamID string) (bool, error)
}
