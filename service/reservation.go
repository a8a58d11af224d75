package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/reservation"
	"example.com/stayhub/services/reservation/models"
)

// CreateReservation creates a new reservation stream and returns its
// projected row. An empty id gets a generated one.
func (s *Service) CreateReservation(ctx context.Context, id string, details reservation.Details) (*models.Reservation, error) {
	defer s.segment(ctx, "Service/CreateReservation").End()

	if id == "" {
		id = uuid.NewString()
	}

	agg, err := reservation.Create(id, details)
	if err != nil {
		s.metrics.RecordError("create_reservation")
		return nil, err
	}

	if _, err := s.reservations.Create(ctx, agg); err != nil {
		s.metrics.RecordError("create_reservation")
		return nil, err
	}

	s.metrics.IncrementCounter("reservations_created")
	s.metrics.RecordSuccess("create_reservation")

	return s.reservations.GetReadModel(ctx, id)
}

// ConfirmReservation moves a reservation to CONFIRMED.
func (s *Service) ConfirmReservation(ctx context.Context, id, confirmedBy string) (*models.Reservation, error) {
	defer s.segment(ctx, "Service/ConfirmReservation").End()

	return s.mutateReservation(ctx, id, "confirm_reservation", func(agg *reservation.Reservation) error {
		return agg.Confirm(confirmedBy)
	})
}

// CancelReservation cancels a reservation with a reason.
func (s *Service) CancelReservation(ctx context.Context, id, reason string) (*models.Reservation, error) {
	defer s.segment(ctx, "Service/CancelReservation").End()

	return s.mutateReservation(ctx, id, "cancel_reservation", func(agg *reservation.Reservation) error {
		return agg.Cancel(reason)
	})
}

// UpdateReservationDetails replaces the guest and stay details of an
// active reservation.
func (s *Service) UpdateReservationDetails(ctx context.Context, id string, details reservation.Details) (*models.Reservation, error) {
	defer s.segment(ctx, "Service/UpdateReservationDetails").End()

	return s.mutateReservation(ctx, id, "update_reservation", func(agg *reservation.Reservation) error {
		return agg.UpdateDetails(details)
	})
}

// mutateReservation loads the aggregate, applies one command and saves.
// The stale cache entry is dropped so the next read refetches the
// projected row.
func (s *Service) mutateReservation(ctx context.Context, id, operation string, command func(*reservation.Reservation) error) (*models.Reservation, error) {
	agg, err := s.reservations.Load(ctx, id)
	if err != nil {
		s.metrics.RecordError(operation)
		return nil, err
	}

	if err := command(agg); err != nil {
		s.metrics.RecordError(operation)
		return nil, err
	}

	if _, err := s.reservations.Save(ctx, agg); err != nil {
		s.metrics.RecordError(operation)
		return nil, err
	}

	if err := s.cache.DeleteReservation(ctx, id); err != nil {
		log.Warn().Err(err).Str("reservation_id", id).Msg("Failed to invalidate reservation cache")
	}

	s.metrics.RecordSuccess(operation)
	return s.reservations.GetReadModel(ctx, id)
}

// GetReservation returns the projected row, cache-aside.
func (s *Service) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	defer s.segment(ctx, "Service/GetReservation").End()

	if cached, err := s.cache.GetReservation(ctx, id); err == nil {
		s.metrics.IncrementCounter("reservation_cache_hits")
		return cached, nil
	}

	row, err := s.reservations.GetReadModel(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetReservation(ctx, row); err != nil {
		log.Warn().Err(err).Str("reservation_id", id).Msg("Failed to cache reservation")
	}

	return row, nil
}

// ListReservations returns projected rows, optionally filtered by
// status and unit.
func (s *Service) ListReservations(ctx context.Context, status, unitID string, limit, offset int) ([]models.Reservation, error) {
	defer s.segment(ctx, "Service/ListReservations").End()

	filter := map[string]interface{}{}
	if status != "" {
		filter["status"] = status
	}
	if unitID != "" {
		filter["unit_id"] = unitID
	}

	return s.reservations.ListReadModels(ctx, filter, limit, offset)
}

// GetReservationEvents returns the full event history of a reservation.
func (s *Service) GetReservationEvents(ctx context.Context, id string) ([]domain.StoredEvent, error) {
	defer s.segment(ctx, "Service/GetReservationEvents").End()

	return s.reservations.GetEventHistory(ctx, id)
}
