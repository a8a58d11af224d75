package projections

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/reservation"
	"example.com/stayhub/services/reservation/models"
)

// RegisterReservation wires the reservation read-model handlers. Every
// write carries a `version < event.version` guard so a redelivered or
// out-of-order event can never move a row backwards.
func RegisterReservation(a *Applier) {
	a.Register(reservation.AggregateType, reservation.Created, projectReservationCreated)
	a.Register(reservation.AggregateType, reservation.Confirmed, projectReservationConfirmed)
	a.Register(reservation.AggregateType, reservation.Cancelled, projectReservationCancelled)
	a.Register(reservation.AggregateType, reservation.DetailsUpdated, projectReservationDetailsUpdated)
}

func projectReservationCreated(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	var data reservation.CreatedEvent
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	row := models.Reservation{
		AggregateID: event.AggregateID,
		Version:     event.Version,
		GuestName:   data.GuestName,
		GuestEmail:  data.GuestEmail,
		UnitID:      data.UnitID,
		CheckIn:     data.CheckIn,
		CheckOut:    data.CheckOut,
		Notes:       data.Notes,
		Status:      reservation.StatusPending,
		CreatedAt:   event.OccurredAt,
		UpdatedAt:   event.OccurredAt,
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "aggregate_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"version":     event.Version,
			"guest_name":  data.GuestName,
			"guest_email": data.GuestEmail,
			"unit_id":     data.UnitID,
			"check_in":    data.CheckIn,
			"check_out":   data.CheckOut,
			"notes":       data.Notes,
			"status":      reservation.StatusPending,
			"updated_at":  event.OccurredAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: "reservations", Name: "version"}, Value: event.Version},
		}},
	}).Create(&row).Error
}

func projectReservationConfirmed(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	return tx.WithContext(ctx).Model(&models.Reservation{}).
		Where("aggregate_id = ? AND version < ?", event.AggregateID, event.Version).
		Updates(map[string]interface{}{
			"version":    event.Version,
			"status":     reservation.StatusConfirmed,
			"updated_at": event.OccurredAt,
		}).Error
}

func projectReservationCancelled(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	var data reservation.CancelledEvent
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return tx.WithContext(ctx).Model(&models.Reservation{}).
		Where("aggregate_id = ? AND version < ?", event.AggregateID, event.Version).
		Updates(map[string]interface{}{
			"version":       event.Version,
			"status":        reservation.StatusCancelled,
			"cancel_reason": data.Reason,
			"updated_at":    event.OccurredAt,
		}).Error
}

func projectReservationDetailsUpdated(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	var data reservation.DetailsUpdatedEvent
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return tx.WithContext(ctx).Model(&models.Reservation{}).
		Where("aggregate_id = ? AND version < ?", event.AggregateID, event.Version).
		Updates(map[string]interface{}{
			"version":     event.Version,
			"guest_name":  data.GuestName,
			"guest_email": data.GuestEmail,
			"check_in":    data.CheckIn,
			"check_out":   data.CheckOut,
			"notes":       data.Notes,
			"updated_at":  event.OccurredAt,
		}).Error
}
