package domain

import "time"

// ReservationState is the lifecycle state of a reservation.
type ReservationState string

const (
	// StateConfirmed is the state stamped at creation.
	StateConfirmed ReservationState = "CONFIRMED"
	// StateReassigned marks a reservation moved to another employee or
	// equipment by the blocking cascade; start and end are unchanged.
	StateReassigned ReservationState = "REASSIGNED"
	// StatePendingReschedule marks a reservation invalidated by a blocking
	// for which no same-slot reassignment was possible.
	StatePendingReschedule ReservationState = "PENDING_RESCHEDULE"
)

// Reservation is a committed slot for a service on an employee and,
// optionally, an equipment. Times are UTC instants.
type Reservation struct {
	ReservationID string           `json:"reserva_id"`
	ServiceID     string           `json:"servicio_id"`
	EmployeeID    string           `json:"empleado_id"`
	EquipmentID   string           `json:"equipo_id,omitempty"`
	Start         time.Time        `json:"inicio_slot"`
	End           time.Time        `json:"fin_slot"`
	CreatedAt     time.Time        `json:"creada_en"`
	State         ReservationState `json:"estado"`
	Version       int              `json:"version"`
	ScenarioID    string           `json:"scenario_id,omitempty"`
}

// OverlapsRange reports whether the reservation intersects [start, end).
func (r Reservation) OverlapsRange(start, end time.Time) bool {
	return start.Before(r.End) && end.After(r.Start)
}

// Blocks reports whether the reservation currently occupies its resources.
// A reservation pending reschedule no longer holds its slot.
func (r Reservation) Blocks() bool {
	return r.State == StateConfirmed || r.State == StateReassigned
}

// OperationalBlocking is a persisted scoped blocking applied at runtime.
// Unlike scenario exceptions it may target several resources at once; an
// empty target list means the blocking applies to every resource of its
// scope.
type OperationalBlocking struct {
	ID           string     `json:"id"`
	Scope        BlockScope `json:"scope"`
	Start        time.Time  `json:"inicio_utc"`
	End          time.Time  `json:"fin_utc"`
	Reason       string     `json:"motivo"`
	EmployeeIDs  []string   `json:"empleado_ids,omitempty"`
	EquipmentIDs []string   `json:"equipo_ids,omitempty"`
	ServiceIDs   []string   `json:"servicio_ids,omitempty"`
}

// OverlapsRange reports whether the blocking intersects [start, end).
func (b OperationalBlocking) OverlapsRange(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// AppliesToEmployee reports whether an employee-scope blocking targets id.
func (b OperationalBlocking) AppliesToEmployee(id string) bool {
	if b.Scope != ScopeEmployee {
		return false
	}
	if len(b.EmployeeIDs) == 0 {
		return true
	}
	return containsString(b.EmployeeIDs, id)
}

// AppliesToEquipment reports whether an equipment-scope blocking targets id.
func (b OperationalBlocking) AppliesToEquipment(id string) bool {
	if b.Scope != ScopeEquipment {
		return false
	}
	if len(b.EquipmentIDs) == 0 {
		return true
	}
	return containsString(b.EquipmentIDs, id)
}

// AppliesToService reports whether a service-scope blocking targets id.
func (b OperationalBlocking) AppliesToService(id string) bool {
	if b.Scope != ScopeService {
		return false
	}
	if len(b.ServiceIDs) == 0 {
		return true
	}
	return containsString(b.ServiceIDs, id)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
