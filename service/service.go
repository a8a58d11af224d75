package service

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"

	"example.com/stayhub/services/reservation/cache"
	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/guestaccount"
	"example.com/stayhub/services/reservation/domain/reservation"
	"example.com/stayhub/services/reservation/metrics"
	"example.com/stayhub/services/reservation/models"
	"example.com/stayhub/services/reservation/repository"
	"example.com/stayhub/services/reservation/tracing"
)

// ReservationRepo is the repository shape for the reservation entity.
type ReservationRepo = repository.EventSourced[*reservation.Reservation, models.Reservation]

// GuestAccountRepo is the repository shape for the guest account entity.
type GuestAccountRepo = repository.EventSourced[*guestaccount.Account, models.GuestAccount]

// Service holds the business operations on reservations and guest
// accounts. All writes go through the event-sourced repositories; reads
// are served cache-aside from the projected rows.
type Service struct {
	reservations *ReservationRepo
	accounts     *GuestAccountRepo
	cache        cache.Client
	codes        domain.CodeGenerator
	metrics      *metrics.Metrics
	tracer       tracing.Tracer
}

// New creates the service.
func New(
	reservations *ReservationRepo,
	accounts *GuestAccountRepo,
	cacheClient cache.Client,
	codes domain.CodeGenerator,
	m *metrics.Metrics,
	tracer tracing.Tracer,
) *Service {
	return &Service{
		reservations: reservations,
		accounts:     accounts,
		cache:        cacheClient,
		codes:        codes,
		metrics:      m,
		tracer:       tracer,
	}
}

// segment opens a tracing segment on the transaction carried by the
// request context, a no-op outside traced requests.
func (s *Service) segment(ctx context.Context, name string) *newrelic.Segment {
	return s.tracer.StartSegment(name, newrelic.FromContext(ctx))
}
