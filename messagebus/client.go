package messagebus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// Client is the outbound message bus used by the event relayer.
type Client interface {
	// Publish sends one durable message with the given routing key.
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close(ctx context.Context) error
}

// AzureServiceBusClient implements Client on an Azure Service Bus
// topic. Service Bus persists messages by default, which satisfies the
// durability requirement of relayed events.
type AzureServiceBusClient struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
	topic  string
}

// NewClient connects to the bus and creates a sender for the topic.
func NewClient(connectionString, topic string) (*AzureServiceBusClient, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("service bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}

	sender, err := client.NewSender(topic, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender for topic %s: %w", topic, err)
	}

	return &AzureServiceBusClient{
		client: client,
		sender: sender,
		topic:  topic,
	}, nil
}

// Publish sends the message. The routing key is carried as the message
// subject and as an application property so subscriptions can filter on
// either.
func (c *AzureServiceBusClient) Publish(ctx context.Context, routingKey string, body []byte) error {
	msg := &azservicebus.Message{
		Body:    body,
		Subject: &routingKey,
		ApplicationProperties: map[string]interface{}{
			"routing_key": routingKey,
			"time":        time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := c.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", c.topic, err)
	}

	return nil
}

// Close closes the sender and the underlying connection.
func (c *AzureServiceBusClient) Close(ctx context.Context) error {
	if c.sender != nil {
		if err := c.sender.Close(ctx); err != nil {
			return err
		}
	}

	if c.client != nil {
		return c.client.Close(ctx)
	}

	return nil
}

// IsDisconnectionError reports whether an error indicates the bus
// connection is gone, as opposed to a transient publish failure.
func IsDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "amqp: link detached") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "awaiting send: context deadline exceeded")
}

// RetryWithBackoff retries an operation with exponential backoff while
// it keeps failing with disconnection errors.
func RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error {
	var err error

	for retry := 0; retry < maxRetries; retry++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !IsDisconnectionError(err) {
			return err
		}

		backoff := time.Duration(1<<uint(retry)) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}

		select {
		case <-time.After(backoff):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
