package reservation

import "time"

// AggregateType identifies reservation streams in the event log.
const AggregateType = "reservation"

// Event type names as persisted and relayed.
const (
	Created        = "ReservationCreated"
	Confirmed      = "ReservationConfirmed"
	Cancelled      = "ReservationCancelled"
	DetailsUpdated = "ReservationDetailsUpdated"
)

// CreatedEvent is the payload of ReservationCreated.
type CreatedEvent struct {
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	UnitID     string    `json:"unit_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Notes      string    `json:"notes,omitempty"`
}

// ConfirmedEvent is the payload of ReservationConfirmed.
type ConfirmedEvent struct {
	ConfirmedBy string `json:"confirmed_by,omitempty"`
}

// CancelledEvent is the payload of ReservationCancelled.
type CancelledEvent struct {
	Reason string `json:"reason"`
}

// DetailsUpdatedEvent is the payload of ReservationDetailsUpdated.
type DetailsUpdatedEvent struct {
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Notes      string    `json:"notes,omitempty"`
}
