package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// PublishedMessage is one message captured by the in-process bus.
type PublishedMessage struct {
	RoutingKey string
	Payload    []byte
}

// InProcessBus is the Publisher for local mode: it logs every event and
// keeps the recent messages in memory so tests and the health surface can
// inspect them.
type InProcessBus struct {
	logger   *slog.Logger
	mu       sync.Mutex
	messages []PublishedMessage
}

// NewInProcessBus creates a new in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{logger: logger}
}

// Publish records the message synchronously. It never fails.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	b.messages = append(b.messages, PublishedMessage{RoutingKey: routingKey, Payload: payload})
	b.mu.Unlock()

	b.logger.Debug("event published",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Messages returns a snapshot of everything published so far.
func (b *InProcessBus) Messages() []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PublishedMessage, len(b.messages))
	copy(out, b.messages)
	return out
}

// Close is a no-op for the in-process bus.
func (b *InProcessBus) Close() error {
	return nil
}
