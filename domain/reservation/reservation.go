package reservation

import (
	"encoding/json"
	"time"

	"example.com/stayhub/services/reservation/domain"
)

// Status of a reservation.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// State is the reservation's current state, derived solely by folding
// its event stream.
type State struct {
	GuestName    string
	GuestEmail   string
	UnitID       string
	CheckIn      time.Time
	CheckOut     time.Time
	Notes        string
	Status       string
	CancelReason string
}

// Reservation is the reservation aggregate.
type Reservation struct {
	*domain.Root[State]
}

// Details carries the caller-supplied booking fields for create and
// update commands.
type Details struct {
	GuestName  string
	GuestEmail string
	UnitID     string
	CheckIn    time.Time
	CheckOut   time.Time
	Notes      string
}

// New returns an empty reservation aggregate for the given stream id.
func New(id string) *Reservation {
	return &Reservation{Root: domain.NewRoot(id, AggregateType, State{}, reduce)}
}

// reduce is the pure state transition for reservation events.
func reduce(s State, eventType string, data json.RawMessage) (State, error) {
	switch eventType {
	case Created:
		var e CreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return s, err
		}
		s.GuestName = e.GuestName
		s.GuestEmail = e.GuestEmail
		s.UnitID = e.UnitID
		s.CheckIn = e.CheckIn
		s.CheckOut = e.CheckOut
		s.Notes = e.Notes
		s.Status = StatusPending

	case Confirmed:
		s.Status = StatusConfirmed

	case Cancelled:
		var e CancelledEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return s, err
		}
		s.Status = StatusCancelled
		s.CancelReason = e.Reason

	case DetailsUpdated:
		var e DetailsUpdatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return s, err
		}
		s.GuestName = e.GuestName
		s.GuestEmail = e.GuestEmail
		s.CheckIn = e.CheckIn
		s.CheckOut = e.CheckOut
		s.Notes = e.Notes

	default:
		return s, domain.ErrUnknownEventType
	}

	return s, nil
}

// Create validates the booking details and returns a new reservation
// with its first event pending.
func Create(id string, d Details) (*Reservation, error) {
	if d.GuestName == "" {
		return nil, domain.NewValidationError("guest name is required")
	}
	if d.UnitID == "" {
		return nil, domain.NewValidationError("unit id is required")
	}
	if !d.CheckOut.After(d.CheckIn) {
		return nil, domain.NewValidationError("check-out must be after check-in")
	}

	r := New(id)
	if err := r.Raise(Created, CreatedEvent{
		GuestName:  d.GuestName,
		GuestEmail: d.GuestEmail,
		UnitID:     d.UnitID,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Notes:      d.Notes,
	}); err != nil {
		return nil, err
	}

	return r, nil
}

// Confirm moves a pending reservation to CONFIRMED.
func (r *Reservation) Confirm(confirmedBy string) error {
	switch r.State().Status {
	case StatusCancelled:
		return domain.NewValidationError("cannot confirm a cancelled reservation")
	case StatusConfirmed:
		return domain.NewValidationError("reservation %s is already confirmed", r.ID())
	}

	return r.Raise(Confirmed, ConfirmedEvent{ConfirmedBy: confirmedBy})
}

// Cancel cancels the reservation with a reason.
func (r *Reservation) Cancel(reason string) error {
	if r.State().Status == StatusCancelled {
		return domain.NewValidationError("reservation %s is already cancelled", r.ID())
	}
	if reason == "" {
		return domain.NewValidationError("cancellation reason is required")
	}

	return r.Raise(Cancelled, CancelledEvent{Reason: reason})
}

// UpdateDetails replaces the guest and stay details of an active
// reservation.
func (r *Reservation) UpdateDetails(d Details) error {
	if r.State().Status == StatusCancelled {
		return domain.NewValidationError("cannot update a cancelled reservation")
	}
	if d.GuestName == "" {
		return domain.NewValidationError("guest name is required")
	}
	if !d.CheckOut.After(d.CheckIn) {
		return domain.NewValidationError("check-out must be after check-in")
	}

	return r.Raise(DetailsUpdated, DetailsUpdatedEvent{
		GuestName:  d.GuestName,
		GuestEmail: d.GuestEmail,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Notes:      d.Notes,
	})
}
