// Package eventbus publishes domain events to a message broker. The local
// deployment uses the in-process bus; production publishes to a RabbitMQ
// topic exchange.
package eventbus

import (
	"context"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message with the given routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}
