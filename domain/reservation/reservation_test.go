package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/stayhub/services/reservation/domain"
)

func validDetails() Details {
	return Details{
		GuestName:  "Ada Lovelace",
		GuestEmail: "ada@example.com",
		UnitID:     "unit-12",
		CheckIn:    time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 5, 11, 0, 0, 0, time.UTC),
		Notes:      "late arrival",
	}
}

func TestCreateReservation(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)

	require.Equal(t, "res-1", r.ID())
	require.Equal(t, AggregateType, r.Type())
	require.Equal(t, 1, r.Version())
	require.Equal(t, StatusPending, r.State().Status)
	require.Equal(t, "Ada Lovelace", r.State().GuestName)

	pending := r.PendingEvents()
	require.Len(t, pending, 1)
	require.Equal(t, Created, pending[0].Type)
	require.Equal(t, 1, pending[0].Version)
}

func TestCreateReservationValidation(t *testing.T) {
	d := validDetails()
	d.GuestName = ""
	_, err := Create("res-1", d)
	require.True(t, domain.IsValidationError(err))

	d = validDetails()
	d.UnitID = ""
	_, err = Create("res-1", d)
	require.True(t, domain.IsValidationError(err))

	d = validDetails()
	d.CheckOut = d.CheckIn
	_, err = Create("res-1", d)
	require.True(t, domain.IsValidationError(err))
	require.Contains(t, err.Error(), "check-out must be after check-in")
}

func TestConfirmReservation(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)

	require.NoError(t, r.Confirm("ops@example.com"))
	require.Equal(t, StatusConfirmed, r.State().Status)
	require.Equal(t, 2, r.Version())

	// Confirming twice is rejected without raising another event.
	err = r.Confirm("ops@example.com")
	require.True(t, domain.IsValidationError(err))
	require.Equal(t, 2, r.Version())
	require.Len(t, r.PendingEvents(), 2)
}

func TestConfirmCancelledReservation(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)
	require.NoError(t, r.Cancel("guest request"))

	err = r.Confirm("ops@example.com")
	require.True(t, domain.IsValidationError(err))
	require.Contains(t, err.Error(), "cannot confirm a cancelled reservation")
}

func TestCancelReservation(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)

	require.NoError(t, r.Cancel("guest request"))
	require.Equal(t, StatusCancelled, r.State().Status)
	require.Equal(t, "guest request", r.State().CancelReason)

	err = r.Cancel("again")
	require.True(t, domain.IsValidationError(err))
	require.Contains(t, err.Error(), "already cancelled")
}

func TestCancelRequiresReason(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)

	err = r.Cancel("")
	require.True(t, domain.IsValidationError(err))
	require.Equal(t, 1, r.Version())
}

func TestUpdateDetails(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)

	d := validDetails()
	d.GuestName = "Grace Hopper"
	d.Notes = ""
	require.NoError(t, r.UpdateDetails(d))

	require.Equal(t, "Grace Hopper", r.State().GuestName)
	require.Equal(t, "", r.State().Notes)
	require.Equal(t, 2, r.Version())
	// Unit stays fixed across detail updates.
	require.Equal(t, "unit-12", r.State().UnitID)
}

func TestUpdateCancelledReservation(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)
	require.NoError(t, r.Cancel("guest request"))

	err = r.UpdateDetails(validDetails())
	require.True(t, domain.IsValidationError(err))
}

func TestReplayRebuildsIdenticalState(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)
	require.NoError(t, r.Confirm("ops@example.com"))
	require.NoError(t, r.Cancel("plans changed"))

	history := make([]domain.StoredEvent, 0, len(r.PendingEvents()))
	for i, e := range r.PendingEvents() {
		history = append(history, domain.StoredEvent{
			ID:            int64(i + 1),
			AggregateID:   e.AggregateID,
			AggregateType: e.AggregateType,
			Type:          e.Type,
			Version:       e.Version,
			Data:          e.Data,
			OccurredAt:    e.OccurredAt,
		})
	}

	replayed := New("res-1")
	require.NoError(t, replayed.LoadFromHistory(history))

	require.Equal(t, r.Version(), replayed.Version())
	require.Equal(t, r.State(), replayed.State())
	require.Empty(t, replayed.PendingEvents())
}

func TestReplaySkipsUnknownEventTypes(t *testing.T) {
	r, err := Create("res-1", validDetails())
	require.NoError(t, err)

	created := r.PendingEvents()[0]
	history := []domain.StoredEvent{
		{ID: 1, AggregateID: "res-1", AggregateType: AggregateType, Type: created.Type, Version: 1, Data: created.Data},
		{ID: 2, AggregateID: "res-1", AggregateType: AggregateType, Type: "ReservationFlagged", Version: 2, Data: []byte(`{}`)},
	}

	replayed := New("res-1")
	require.NoError(t, replayed.LoadFromHistory(history))

	// The unknown event does not change state but still advances the
	// version, so the next append targets version 3.
	require.Equal(t, 2, replayed.Version())
	require.Equal(t, StatusPending, replayed.State().Status)
}
