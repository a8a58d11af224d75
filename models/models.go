package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation is the denormalized read-model row for a reservation
// stream. Version mirrors the aggregate version at last projection and
// only ever moves forward. The row is a disposable cache rebuildable
// from the event log.
type Reservation struct {
	AggregateID  string    `gorm:"primaryKey;size:64" json:"aggregate_id"`
	Version      int       `json:"version"`
	GuestName    string    `json:"guest_name"`
	GuestEmail   string    `json:"guest_email"`
	UnitID       string    `gorm:"size:64;index" json:"unit_id"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Notes        string    `json:"notes"`
	Status       string    `gorm:"size:16;index" json:"status"`
	CancelReason string    `json:"cancel_reason"`
	AccountID    *string   `gorm:"size:64;index" json:"account_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GuestAccount is the read-model row for a guest account stream.
type GuestAccount struct {
	AggregateID   string    `gorm:"primaryKey;size:64" json:"aggregate_id"`
	Version       int       `json:"version"`
	ReservationID string    `gorm:"size:64;index" json:"reservation_id"`
	Email         string    `json:"email"`
	AccessCode    string    `gorm:"size:16;index" json:"access_code"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PublisherCheckpoint is the durable cursor of one relayer consumer
// into the global event sequence.
type PublisherCheckpoint struct {
	PublisherID          string    `gorm:"primaryKey;size:64" json:"publisher_id"`
	LastProcessedEventID int64     `json:"last_processed_event_id"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SetupModels migrates all tables used by the service.
func SetupModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&Reservation{},
		&GuestAccount{},
		&PublisherCheckpoint{},
	)
}
