package messagebus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDisconnectionError(t *testing.T) {
	require.False(t, IsDisconnectionError(nil))
	require.False(t, IsDisconnectionError(errors.New("malformed payload")))

	require.True(t, IsDisconnectionError(errors.New("amqp: link detached")))
	require.True(t, IsDisconnectionError(errors.New("connection closed by peer")))
	require.True(t, IsDisconnectionError(errors.New("awaiting send: context deadline exceeded")))
}

func TestRetryWithBackoffSucceeds(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("amqp: link detached")
		}
		return nil
	}, 5)

	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRetryWithBackoffStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("malformed payload")

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return permanent
	}, 5)

	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestRetryWithBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return errors.New("amqp: link detached")
	}, 5)

	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClientRequiresConnectionString(t *testing.T) {
	_, err := NewClient("", "reservation-events")
	require.Error(t, err)
}
