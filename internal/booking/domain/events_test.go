package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/telensor/agenda/internal/booking/domain"
)

func TestNewReservationCreated(t *testing.T) {
	r := &domain.Reservation{
		ReservationID: "R-1",
		ServiceID:     "SVC1",
		EmployeeID:    "E1",
		EquipmentID:   "EQ1",
		Start:         time.Date(2025, 11, 6, 9, 0, 0, 0, time.UTC),
		End:           time.Date(2025, 11, 6, 9, 45, 0, 0, time.UTC),
	}

	event := domain.NewReservationCreated(r)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "R-1", event.AggregateID())
	assert.Equal(t, domain.ReservationAggregate, event.AggregateType())
	assert.Equal(t, "booking.reservation.created", event.RoutingKey())
	assert.Equal(t, "E1", event.EmployeeID)
	assert.False(t, event.OccurredAt().IsZero())
}

func TestNewReservationReassigned(t *testing.T) {
	r := &domain.Reservation{ReservationID: "R-1", EmployeeID: "E2", EquipmentID: "EQ1"}

	event := domain.NewReservationReassigned(r, "B-1", "E1", "EQ2")

	assert.Equal(t, "booking.reservation.reassigned", event.RoutingKey())
	assert.Equal(t, "E1", event.OldEmployee)
	assert.Equal(t, "E2", event.NewEmployee)
	assert.Equal(t, "EQ2", event.OldEquipment)
	assert.Equal(t, "EQ1", event.NewEquipment)
	assert.Equal(t, "B-1", event.BlockingID)
}

func TestNewBlockingApplied(t *testing.T) {
	b := &domain.OperationalBlocking{
		ID:    "B-1",
		Scope: domain.ScopeBusiness,
		Start: time.Date(2025, 11, 6, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 11, 6, 12, 0, 0, 0, time.UTC),
	}

	event := domain.NewBlockingApplied(b, 3)

	assert.Equal(t, "booking.blocking.applied", event.RoutingKey())
	assert.Equal(t, domain.BlockingAggregate, event.AggregateType())
	assert.Equal(t, 3, event.Processed)
}
