package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents something that happened in the domain.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
}

// BaseEvent provides common event functionality. Aggregate ids are strings
// because reservation and blocking ids are timestamped identifiers, not
// UUIDs.
type BaseEvent struct {
	ID            uuid.UUID `json:"event_id"`
	Aggregate     string    `json:"aggregate_id"`
	AggregateKind string    `json:"aggregate_type"`
	Routing       string    `json:"routing_key"`
	Occurred      time.Time `json:"occurred_at"`
}

// NewBaseEvent creates a new base event stamped with the current UTC time.
func NewBaseEvent(aggregateID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Aggregate:     aggregateID,
		AggregateKind: aggregateType,
		Routing:       routingKey,
		Occurred:      time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }
func (e BaseEvent) AggregateType() string { return e.AggregateKind }
func (e BaseEvent) RoutingKey() string    { return e.Routing }
func (e BaseEvent) OccurredAt() time.Time { return e.Occurred }
