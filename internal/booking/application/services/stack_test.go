package services_test

import (
	"testing"
	"time"

	"github.com/telensor/agenda/internal/booking/application/services"
	"github.com/telensor/agenda/internal/booking/infrastructure/catalog"
	"github.com/telensor/agenda/internal/booking/infrastructure/fixtures"
	"github.com/telensor/agenda/internal/booking/infrastructure/persistence"
	"github.com/telensor/agenda/internal/shared/infrastructure/eventbus"
)

// testStack wires the application services against the in-memory store and
// the shipped scenario fixtures.
type testStack struct {
	availability *services.AvailabilityService
	reservations *services.ReservationManager
	cascade      *services.CascadeManager
	store        *persistence.MemoryStore
	bus          *eventbus.InProcessBus
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	store := persistence.NewMemoryStore()
	bus := eventbus.NewInProcessBus(nil)
	cat := catalog.NewDefault()
	scenarios := fixtures.NewFileLoader("../../../../docs/test_scenarios.json", nil)

	aggregator := services.NewBlockingAggregator(cat, store, nil)
	availability := services.NewAvailabilityService(cat, cat, scenarios, aggregator, nil, nil)
	reservations := services.NewReservationManager(availability, store, bus, nil, nil)
	cascade := services.NewCascadeManager(availability, store, scenarios, bus, nil, nil)

	return &testStack{
		availability: availability,
		reservations: reservations,
		cascade:      cascade,
		store:        store,
		bus:          bus,
	}
}

// at builds a UTC instant on the fixture base day, 2025-11-06.
func at(hour, minute int) time.Time {
	return time.Date(2025, 11, 6, hour, minute, 0, 0, time.UTC)
}

// atNext builds a UTC instant on the day after the fixture base day.
func atNext(hour, minute int) time.Time {
	return time.Date(2025, 11, 7, hour, minute, 0, 0, time.UTC)
}

func routingKeys(bus *eventbus.InProcessBus) []string {
	msgs := bus.Messages()
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}
