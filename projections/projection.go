package projections

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/stayhub/services/reservation/domain"
)

// Handler applies one event type to the read model. It runs inside the
// same transaction as the event append and must be idempotent: applied
// twice, or out of order on a retry, it must not regress the row.
type Handler func(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error

// Applier routes stored events to the handler registered for their
// (aggregate type, event type) pair.
type Applier struct {
	handlers map[string]map[string]Handler
}

// NewApplier creates an empty applier. Entity packages register their
// handlers against it at startup.
func NewApplier() *Applier {
	return &Applier{handlers: make(map[string]map[string]Handler)}
}

// Register adds a handler for one (aggregate type, event type) pair.
func (a *Applier) Register(aggregateType, eventType string, h Handler) {
	byEvent, ok := a.handlers[aggregateType]
	if !ok {
		byEvent = make(map[string]Handler)
		a.handlers[aggregateType] = byEvent
	}
	if _, exists := byEvent[eventType]; exists {
		panic(fmt.Sprintf("projection handler already registered for %s/%s", aggregateType, eventType))
	}
	byEvent[eventType] = h
}

// Apply runs the handler for the event, if one is registered. Events
// without a handler are skipped so new event types do not break older
// projections.
func (a *Applier) Apply(ctx context.Context, tx *gorm.DB, event domain.StoredEvent) error {
	h, ok := a.handlers[event.AggregateType][event.Type]
	if !ok {
		log.Debug().
			Str("aggregate_type", event.AggregateType).
			Str("event_type", event.Type).
			Msg("No projection handler registered, skipping event")
		return nil
	}

	if err := h(ctx, tx, event); err != nil {
		return fmt.Errorf("projection %s/%s failed: %w", event.AggregateType, event.Type, err)
	}

	return nil
}
