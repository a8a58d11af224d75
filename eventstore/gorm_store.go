package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/models"
)

// GormStore implements Store on top of a relational database via GORM.
// The (aggregate_id, version) unique index enforces optimistic
// concurrency: a stale append surfaces as a constraint violation and is
// translated to domain.ErrConcurrencyConflict.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed event store. The handle is
// used for reads; appends always run on the transaction supplied by the
// caller.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append inserts the events with contiguous versions starting at
// expectedVersion+1.
func (s *GormStore) Append(ctx context.Context, tx *gorm.DB, streamID string, events []domain.Event, expectedVersion int) ([]domain.StoredEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	stored := make([]domain.StoredEvent, 0, len(events))
	for i, event := range events {
		var metadata []byte
		if event.Metadata != nil {
			var err error
			metadata, err = json.Marshal(event.Metadata)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
			}
		}

		row := models.Event{
			AggregateID:   streamID,
			AggregateType: event.AggregateType,
			EventType:     event.Type,
			Data:          event.Data,
			Metadata:      metadata,
			Version:       expectedVersion + i + 1,
			OccurredAt:    event.OccurredAt,
		}

		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("stream %s at version %d: %w", streamID, row.Version, domain.ErrConcurrencyConflict)
			}
			return nil, fmt.Errorf("failed to append event: %w", err)
		}

		stored = append(stored, toStoredEvent(row))
	}

	return stored, nil
}

// Load returns the full history of a stream ordered by version.
func (s *GormStore) Load(ctx context.Context, streamID string) ([]domain.StoredEvent, error) {
	var rows []models.Event
	if err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", streamID).
		Order("version ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	return toStoredEvents(rows), nil
}

// Unpublished returns committed events beyond a relayer checkpoint.
func (s *GormStore) Unpublished(ctx context.Context, afterID int64, limit int) ([]domain.StoredEvent, error) {
	var rows []models.Event
	if err := s.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load unpublished events: %w", err)
	}

	return toStoredEvents(rows), nil
}

// Exists reports whether a stream has at least one event.
func (s *GormStore) Exists(ctx context.Context, streamID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("aggregate_id = ?", streamID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check if stream exists: %w", err)
	}

	return count > 0, nil
}

func toStoredEvent(row models.Event) domain.StoredEvent {
	return domain.StoredEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		Type:          row.EventType,
		Version:       row.Version,
		Data:          row.Data,
		Metadata:      row.Metadata,
		OccurredAt:    row.OccurredAt,
	}
}

func toStoredEvents(rows []models.Event) []domain.StoredEvent {
	events := make([]domain.StoredEvent, len(rows))
	for i, row := range rows {
		events[i] = toStoredEvent(row)
	}
	return events
}

// isUniqueViolation detects a unique constraint violation from postgres
// (code 23505) or from the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

var _ Store = (*GormStore)(nil)
