package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/stayhub/services/reservation/models"
)

// CheckpointStore persists each publisher's cursor into the global
// event sequence.
type CheckpointStore interface {
	// Get returns the last processed event id for a publisher, 0 if the
	// publisher has no checkpoint yet.
	Get(ctx context.Context, publisherID string) (int64, error)

	// Advance moves the checkpoint forward. Moving backwards is a
	// no-op; the cursor is strictly non-decreasing.
	Advance(ctx context.Context, publisherID string, lastEventID int64) error

	// Reset sets the checkpoint unconditionally. Used by operator
	// tooling to force redelivery of a range of events.
	Reset(ctx context.Context, publisherID string, lastEventID int64) error
}

// GormCheckpointStore implements CheckpointStore as a single upserted
// row per publisher.
type GormCheckpointStore struct {
	db *gorm.DB
}

// NewGormCheckpointStore creates a new GORM-backed checkpoint store.
func NewGormCheckpointStore(db *gorm.DB) *GormCheckpointStore {
	return &GormCheckpointStore{db: db}
}

// Get returns the checkpoint for a publisher, 0 if absent.
func (s *GormCheckpointStore) Get(ctx context.Context, publisherID string) (int64, error) {
	var row models.PublisherCheckpoint
	err := s.db.WithContext(ctx).
		Where("publisher_id = ?", publisherID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint for %s: %w", publisherID, err)
	}

	return row.LastProcessedEventID, nil
}

// Advance upserts the checkpoint, guarded so it never moves backwards.
func (s *GormCheckpointStore) Advance(ctx context.Context, publisherID string, lastEventID int64) error {
	row := models.PublisherCheckpoint{
		PublisherID:          publisherID,
		LastProcessedEventID: lastEventID,
		UpdatedAt:            time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "publisher_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_processed_event_id": lastEventID,
			"updated_at":              row.UpdatedAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{
				Column: clause.Column{Table: "publisher_checkpoints", Name: "last_processed_event_id"},
				Value:  lastEventID,
			},
		}},
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to advance checkpoint for %s: %w", publisherID, err)
	}

	return nil
}

// Reset overwrites the checkpoint regardless of its current value.
func (s *GormCheckpointStore) Reset(ctx context.Context, publisherID string, lastEventID int64) error {
	row := models.PublisherCheckpoint{
		PublisherID:          publisherID,
		LastProcessedEventID: lastEventID,
		UpdatedAt:            time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "publisher_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_processed_event_id": lastEventID,
			"updated_at":              row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to reset checkpoint for %s: %w", publisherID, err)
	}

	return nil
}

var _ CheckpointStore = (*GormCheckpointStore)(nil)
