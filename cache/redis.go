package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"example.com/stayhub/services/reservation/models"
)

// Client caches read-model rows in front of the database. A cache miss
// surfaces as redis.Nil; callers fall through to the repository.
type Client interface {
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	SetReservation(ctx context.Context, reservation *models.Reservation) error
	DeleteReservation(ctx context.Context, id string) error

	GetGuestAccount(ctx context.Context, id string) (*models.GuestAccount, error)
	SetGuestAccount(ctx context.Context, account *models.GuestAccount) error
	DeleteGuestAccount(ctx context.Context, id string) error

	FlushAll(ctx context.Context) error
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisClient implements Client using Redis. When disabled it degrades
// to a pass-through: every read misses and every write succeeds.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a Redis-backed cache client.
func NewRedisClient(cfg RedisConfig) (Client, error) {
	if !cfg.Enabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     time.Hour,
	}, nil
}

func reservationKey(id string) string {
	return fmt.Sprintf("reservation:%s", id)
}

func guestAccountKey(id string) string {
	return fmt.Sprintf("guest_account:%s", id)
}

// GetReservation retrieves a reservation row from cache.
func (c *RedisClient) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, reservationKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var reservation models.Reservation
	if err := json.Unmarshal(data, &reservation); err != nil {
		return nil, err
	}

	return &reservation, nil
}

// SetReservation caches a reservation row.
func (c *RedisClient) SetReservation(ctx context.Context, reservation *models.Reservation) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(reservation)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, reservationKey(reservation.AggregateID), data, c.ttl).Err()
}

// DeleteReservation drops a reservation row from cache.
func (c *RedisClient) DeleteReservation(ctx context.Context, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, reservationKey(id)).Err()
}

// GetGuestAccount retrieves a guest account row from cache.
func (c *RedisClient) GetGuestAccount(ctx context.Context, id string) (*models.GuestAccount, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, guestAccountKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var account models.GuestAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// SetGuestAccount caches a guest account row.
func (c *RedisClient) SetGuestAccount(ctx context.Context, account *models.GuestAccount) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, guestAccountKey(account.AggregateID), data, c.ttl).Err()
}

// DeleteGuestAccount drops a guest account row from cache.
func (c *RedisClient) DeleteGuestAccount(ctx context.Context, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, guestAccountKey(id)).Err()
}

// FlushAll clears the whole cache.
func (c *RedisClient) FlushAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.FlushAll(ctx).Err()
}
