package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/messagebus"
	"example.com/stayhub/services/reservation/metrics"
)

// Config tunes one relayer instance.
type Config struct {
	PublisherID string
	BatchSize   int
	Interval    time.Duration
}

// Relayer polls the event store for events beyond its checkpoint and
// forwards them to the message bus. The checkpoint advances only after
// a whole batch has been published, so delivery is at-least-once and
// consumers must deduplicate by the event's global id.
type Relayer struct {
	store       eventstore.Store
	checkpoints CheckpointStore
	bus         messagebus.Client
	metrics     *metrics.Metrics
	publisherID string
	batchSize   int
	interval    time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// busEnvelope is the wire shape of a relayed event.
type busEnvelope struct {
	ID         int64           `json:"id"`
	StreamID   string          `json:"stream_id"`
	Version    int             `json:"version"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New creates a stopped relayer. The bus client is constructed and
// closed by the caller; the relayer only publishes on it.
func New(store eventstore.Store, checkpoints CheckpointStore, bus messagebus.Client, m *metrics.Metrics, cfg Config) *Relayer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.PublisherID == "" {
		cfg.PublisherID = "event-relayer"
	}

	return &Relayer{
		store:       store,
		checkpoints: checkpoints,
		bus:         bus,
		metrics:     m,
		publisherID: cfg.PublisherID,
		batchSize:   cfg.BatchSize,
		interval:    cfg.Interval,
	}
}

// Start transitions the relayer to running and begins the polling loop.
// A single goroutine runs all ticks, so a tick can never overlap
// itself.
func (r *Relayer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.loop()

	log.Info().
		Str("publisher_id", r.publisherID).
		Dur("interval", r.interval).
		Int("batch_size", r.batchSize).
		Msg("Event relayer started")
}

// Stop cancels the polling loop and waits for the in-flight tick to
// finish. Restarting after a stop is an explicit operator action.
func (r *Relayer) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	<-done
	log.Info().Str("publisher_id", r.publisherID).Msg("Event relayer stopped")
}

// IsRunning reports whether the polling loop is active.
func (r *Relayer) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Relayer) loop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.ProcessNow(context.Background()); err != nil {
				r.metrics.RecordError("relayer_tick")
				log.Error().Err(err).Str("publisher_id", r.publisherID).Msg("Failed to relay event batch")

				if messagebus.IsDisconnectionError(err) {
					log.Warn().Str("publisher_id", r.publisherID).Msg("Bus connection lost, stopping relayer")
					r.mu.Lock()
					r.running = false
					r.mu.Unlock()
					return
				}
				continue
			}
			r.metrics.RecordSuccess("relayer_tick")

		case <-r.stopCh:
			return
		}
	}
}

// ProcessNow runs a single tick: fetch the next batch beyond the
// checkpoint, publish every event in order, then advance the
// checkpoint. A publish failure aborts the batch without advancing, so
// the whole batch is retried on the next tick.
func (r *Relayer) ProcessNow(ctx context.Context) (int, error) {
	checkpoint, err := r.checkpoints.Get(ctx, r.publisherID)
	if err != nil {
		return 0, err
	}

	events, err := r.store.Unpublished(ctx, checkpoint, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	for _, event := range events {
		body, err := json.Marshal(envelope(event))
		if err != nil {
			return 0, fmt.Errorf("failed to marshal event %d: %w", event.ID, err)
		}

		routingKey := "event." + event.Type
		if err := r.bus.Publish(ctx, routingKey, body); err != nil {
			return 0, fmt.Errorf("failed to publish event %d: %w", event.ID, err)
		}
	}

	lastID := events[len(events)-1].ID
	if err := r.checkpoints.Advance(ctx, r.publisherID, lastID); err != nil {
		return 0, err
	}

	r.metrics.IncrementCounterBy("events_relayed", int64(len(events)))
	r.metrics.SetGauge("relayer_checkpoint", lastID)

	log.Info().
		Str("publisher_id", r.publisherID).
		Int("events", len(events)).
		Int64("checkpoint", lastID).
		Msg("Relayed event batch")

	return len(events), nil
}

func envelope(event domain.StoredEvent) busEnvelope {
	return busEnvelope{
		ID:         event.ID,
		StreamID:   event.AggregateID,
		Version:    event.Version,
		Type:       event.Type,
		Data:       event.Data,
		Metadata:   event.Metadata,
		OccurredAt: event.OccurredAt,
	}
}
