package projections

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/guestaccount"
	"example.com/stayhub/services/reservation/models"
)

// RegisterGuestAccount wires the guest account read-model handlers.
// Creation also writes the account id back onto the owning reservation
// row, the one cross-aggregate reference the read model carries.
func RegisterGuestAccount(a *Applier) {
	a.Register(guestaccount.AggregateType, guestaccount.Created, projectGuestAccountCreated)
	a.Register(guestaccount.AggregateType, guestaccount.Deactivated, projectGuestAccountDeactivated)
}

func projectGuestAccountCreated(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	var data guestaccount.CreatedEvent
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	row := models.GuestAccount{
		AggregateID:   event.AggregateID,
		Version:       event.Version,
		ReservationID: data.ReservationID,
		Email:         data.Email,
		AccessCode:    data.AccessCode,
		Active:        true,
		CreatedAt:     event.OccurredAt,
		UpdatedAt:     event.OccurredAt,
	}

	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "aggregate_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"version":        event.Version,
			"reservation_id": data.ReservationID,
			"email":          data.Email,
			"access_code":    data.AccessCode,
			"active":         true,
			"updated_at":     event.OccurredAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: "guest_accounts", Name: "version"}, Value: event.Version},
		}},
	}).Create(&row).Error; err != nil {
		return err
	}

	// Link the account onto the owning reservation. Setting the same id
	// twice is a no-op, so redelivery stays idempotent.
	return tx.WithContext(ctx).Model(&models.Reservation{}).
		Where("aggregate_id = ?", data.ReservationID).
		Update("account_id", event.AggregateID).Error
}

func projectGuestAccountDeactivated(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	return tx.WithContext(ctx).Model(&models.GuestAccount{}).
		Where("aggregate_id = ? AND version < ?", event.AggregateID, event.Version).
		Updates(map[string]interface{}{
			"version":    event.Version,
			"active":     false,
			"updated_at": event.OccurredAt,
		}).Error
}
