package guestaccount

import (
	"encoding/json"

	"example.com/stayhub/services/reservation/domain"
)

// State is the guest account's current state.
type State struct {
	ReservationID string
	Email         string
	AccessCode    string
	Active        bool
}

// Account is the guest account aggregate. An account belongs to exactly
// one reservation and carries the access code guests use to sign in.
type Account struct {
	*domain.Root[State]
}

// New returns an empty account aggregate for the given stream id.
func New(id string) *Account {
	return &Account{Root: domain.NewRoot(id, AggregateType, State{}, reduce)}
}

func reduce(s State, eventType string, data json.RawMessage) (State, error) {
	switch eventType {
	case Created:
		var e CreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return s, err
		}
		s.ReservationID = e.ReservationID
		s.Email = e.Email
		s.AccessCode = e.AccessCode
		s.Active = true

	case Deactivated:
		s.Active = false

	default:
		return s, domain.ErrUnknownEventType
	}

	return s, nil
}

// Create validates the account details, generates the access code via
// the supplied generator and returns a new account with its first event
// pending.
func Create(id, reservationID, email string, codes domain.CodeGenerator) (*Account, error) {
	if reservationID == "" {
		return nil, domain.NewValidationError("reservation id is required")
	}
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}

	a := New(id)
	if err := a.Raise(Created, CreatedEvent{
		ReservationID: reservationID,
		Email:         email,
		AccessCode:    codes.AccessCode(),
	}); err != nil {
		return nil, err
	}

	return a, nil
}

// Deactivate disables the account.
func (a *Account) Deactivate(reason string) error {
	if !a.State().Active {
		return domain.NewValidationError("guest account %s is already deactivated", a.ID())
	}

	return a.Raise(Deactivated, DeactivatedEvent{Reason: reason})
}
