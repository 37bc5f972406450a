package domain

import (
	"time"

	sharedDomain "github.com/telensor/agenda/internal/shared/domain"
)

const (
	ReservationAggregate = "Reservation"
	BlockingAggregate    = "Blocking"

	RoutingKeyReservationCreated  = "booking.reservation.created"
	RoutingKeyReservationMoved    = "booking.reservation.reassigned"
	RoutingKeyReservationStranded = "booking.reservation.pending_reschedule"
	RoutingKeyBlockingApplied     = "booking.blocking.applied"
)

// ReservationCreated is emitted when a reservation is committed.
type ReservationCreated struct {
	sharedDomain.BaseEvent
	ServiceID   string    `json:"servicio_id"`
	EmployeeID  string    `json:"empleado_id"`
	EquipmentID string    `json:"equipo_id,omitempty"`
	Start       time.Time `json:"inicio_slot"`
	End         time.Time `json:"fin_slot"`
}

// NewReservationCreated creates a ReservationCreated event.
func NewReservationCreated(r *Reservation) ReservationCreated {
	return ReservationCreated{
		BaseEvent:   sharedDomain.NewBaseEvent(r.ReservationID, ReservationAggregate, RoutingKeyReservationCreated),
		ServiceID:   r.ServiceID,
		EmployeeID:  r.EmployeeID,
		EquipmentID: r.EquipmentID,
		Start:       r.Start,
		End:         r.End,
	}
}

// ReservationReassigned is emitted when the cascade moves a reservation to
// a different employee or equipment without changing its window.
type ReservationReassigned struct {
	sharedDomain.BaseEvent
	BlockingID   string `json:"bloqueo_id"`
	OldEmployee  string `json:"empleado_anterior"`
	NewEmployee  string `json:"empleado_nuevo"`
	OldEquipment string `json:"equipo_anterior,omitempty"`
	NewEquipment string `json:"equipo_nuevo,omitempty"`
}

// NewReservationReassigned creates a ReservationReassigned event.
func NewReservationReassigned(r *Reservation, blockingID, oldEmployee, oldEquipment string) ReservationReassigned {
	return ReservationReassigned{
		BaseEvent:    sharedDomain.NewBaseEvent(r.ReservationID, ReservationAggregate, RoutingKeyReservationMoved),
		BlockingID:   blockingID,
		OldEmployee:  oldEmployee,
		NewEmployee:  r.EmployeeID,
		OldEquipment: oldEquipment,
		NewEquipment: r.EquipmentID,
	}
}

// ReservationPendingReschedule is emitted when no reassignment was possible.
type ReservationPendingReschedule struct {
	sharedDomain.BaseEvent
	BlockingID string `json:"bloqueo_id"`
}

// NewReservationPendingReschedule creates a ReservationPendingReschedule event.
func NewReservationPendingReschedule(reservationID, blockingID string) ReservationPendingReschedule {
	return ReservationPendingReschedule{
		BaseEvent:  sharedDomain.NewBaseEvent(reservationID, ReservationAggregate, RoutingKeyReservationStranded),
		BlockingID: blockingID,
	}
}

// BlockingApplied is emitted after a blocking is persisted and its cascade
// has processed the affected reservations.
type BlockingApplied struct {
	sharedDomain.BaseEvent
	Scope     BlockScope `json:"scope"`
	Start     time.Time  `json:"inicio_utc"`
	End       time.Time  `json:"fin_utc"`
	Processed int        `json:"reservas_procesadas"`
}

// NewBlockingApplied creates a BlockingApplied event.
func NewBlockingApplied(b *OperationalBlocking, processed int) BlockingApplied {
	return BlockingApplied{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID, BlockingAggregate, RoutingKeyBlockingApplied),
		Scope:     b.Scope,
		Start:     b.Start,
		End:       b.End,
		Processed: processed,
	}
}
