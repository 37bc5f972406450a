package services

import (
	"context"
	"encoding/json"
	"log/slog"

	sharedDomain "github.com/telensor/agenda/internal/shared/domain"
	"github.com/telensor/agenda/internal/shared/infrastructure/eventbus"
	"github.com/telensor/agenda/pkg/observability"
)

// publishEvent marshals and publishes a domain event. Publish failures are
// logged and swallowed; the booking operation itself already committed.
func publishEvent(ctx context.Context, pub eventbus.Publisher, logger *slog.Logger, metrics observability.Metrics, event sharedDomain.DomainEvent) {
	if pub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal event", "routing_key", event.RoutingKey(), "error", err)
		return
	}
	if err := pub.Publish(ctx, event.RoutingKey(), payload); err != nil {
		logger.Error("failed to publish event", "routing_key", event.RoutingKey(), "error", err)
		return
	}
	metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
}
