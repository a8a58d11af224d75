package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/guestaccount"
	"example.com/stayhub/services/reservation/models"
)

// CreateGuestAccount creates a guest account for an existing
// reservation. The access code is generated here and carried in the
// created event, so replaying the stream always yields the same code.
func (s *Service) CreateGuestAccount(ctx context.Context, reservationID, email string) (*models.GuestAccount, error) {
	defer s.segment(ctx, "Service/CreateGuestAccount").End()

	if _, err := s.reservations.GetReadModel(ctx, reservationID); err != nil {
		s.metrics.RecordError("create_guest_account")
		return nil, err
	}

	id := uuid.NewString()
	agg, err := guestaccount.Create(id, reservationID, email, s.codes)
	if err != nil {
		s.metrics.RecordError("create_guest_account")
		return nil, err
	}

	if _, err := s.accounts.Create(ctx, agg); err != nil {
		s.metrics.RecordError("create_guest_account")
		return nil, err
	}

	if err := s.cache.DeleteReservation(ctx, reservationID); err != nil {
		log.Warn().Err(err).Str("reservation_id", reservationID).Msg("Failed to invalidate reservation cache")
	}

	s.metrics.IncrementCounter("guest_accounts_created")
	s.metrics.RecordSuccess("create_guest_account")

	return s.accounts.GetReadModel(ctx, id)
}

// DeactivateGuestAccount disables a guest account.
func (s *Service) DeactivateGuestAccount(ctx context.Context, id, reason string) (*models.GuestAccount, error) {
	defer s.segment(ctx, "Service/DeactivateGuestAccount").End()

	agg, err := s.accounts.Load(ctx, id)
	if err != nil {
		s.metrics.RecordError("deactivate_guest_account")
		return nil, err
	}

	if err := agg.Deactivate(reason); err != nil {
		s.metrics.RecordError("deactivate_guest_account")
		return nil, err
	}

	if _, err := s.accounts.Save(ctx, agg); err != nil {
		s.metrics.RecordError("deactivate_guest_account")
		return nil, err
	}

	if err := s.cache.DeleteGuestAccount(ctx, id); err != nil {
		log.Warn().Err(err).Str("account_id", id).Msg("Failed to invalidate guest account cache")
	}

	s.metrics.RecordSuccess("deactivate_guest_account")
	return s.accounts.GetReadModel(ctx, id)
}

// GetGuestAccount returns the projected row, cache-aside.
func (s *Service) GetGuestAccount(ctx context.Context, id string) (*models.GuestAccount, error) {
	defer s.segment(ctx, "Service/GetGuestAccount").End()

	if cached, err := s.cache.GetGuestAccount(ctx, id); err == nil {
		s.metrics.IncrementCounter("guest_account_cache_hits")
		return cached, nil
	}

	row, err := s.accounts.GetReadModel(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetGuestAccount(ctx, row); err != nil {
		log.Warn().Err(err).Str("account_id", id).Msg("Failed to cache guest account")
	}

	return row, nil
}

// GetGuestAccountEvents returns the full event history of an account.
func (s *Service) GetGuestAccountEvents(ctx context.Context, id string) ([]domain.StoredEvent, error) {
	defer s.segment(ctx, "Service/GetGuestAccountEvents").End()

	return s.accounts.GetEventHistory(ctx, id)
}
