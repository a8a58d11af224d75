package guestaccount

// AggregateType identifies guest account streams in the event log.
const AggregateType = "guest_account"

// Event type names as persisted and relayed.
const (
	Created     = "GuestAccountCreated"
	Deactivated = "GuestAccountDeactivated"
)

// CreatedEvent is the payload of GuestAccountCreated. AccessCode is
// generated at command time so replay reproduces the same code.
type CreatedEvent struct {
	ReservationID string `json:"reservation_id"`
	Email         string `json:"email"`
	AccessCode    string `json:"access_code"`
}

// DeactivatedEvent is the payload of GuestAccountDeactivated.
type DeactivatedEvent struct {
	Reason string `json:"reason,omitempty"`
}
