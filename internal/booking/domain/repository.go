package domain

import (
	"context"
	"time"
)

// ServiceRepository resolves service definitions when no scenario overrides
// them.
type ServiceRepository interface {
	GetService(ctx context.Context, id string) (*Service, error)
}

// ScheduleFilter narrows the schedules returned for a day. Filters apply
// only to schedules that declare the corresponding assignments.
type ScheduleFilter struct {
	ServiceID   string
	EquipmentID string
}

// ScheduleRepository resolves employee working hours for a day.
type ScheduleRepository interface {
	GetEmployeeSchedules(ctx context.Context, day time.Time, filter ScheduleFilter) ([]EmployeeSchedule, error)
}

// OccupationRepository resolves pre-existing busy ranges for employees.
type OccupationRepository interface {
	GetOccupations(ctx context.Context, employeeIDs []string, start, end time.Time) ([]Occupation, error)
}

// ScenarioLoader resolves scenario fixtures by id. A missing scenario is
// reported as (nil, nil); the caller falls back to the repositories.
type ScenarioLoader interface {
	LoadScenario(id string) (*Scenario, error)
}

// ReservationPatch carries the mutable fields of a reservation update. Nil
// fields are left untouched.
type ReservationPatch struct {
	EmployeeID  *string
	EquipmentID *string
	State       *ReservationState
}

// BlockingFilter restricts ListBlockingsIntersecting to blockings that apply
// to the given resources. Business-scope blockings always match. A nil
// filter matches every intersecting blocking.
type BlockingFilter struct {
	EmployeeIDs  []string
	EquipmentIDs []string
	ServiceIDs   []string
}

// NewReservation carries the fields of a reservation to be inserted; the
// store assigns id, creation time, state and version.
type NewReservation struct {
	ServiceID   string
	EmployeeID  string
	EquipmentID string
	Start       time.Time
	End         time.Time
	ScenarioID  string
}

// ReservationStore persists reservations and operational blockings. Add
// re-checks for conflicts inside its critical section, so a positive probe
// followed by a concurrent insert still yields exactly one winner.
type ReservationStore interface {
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]Reservation, error)
	HasConflict(ctx context.Context, employeeID, equipmentID string, start, end time.Time) (bool, error)
	Add(ctx context.Context, r NewReservation) (*Reservation, error)
	Update(ctx context.Context, id string, patch ReservationPatch) (*Reservation, error)
	AddBlocking(ctx context.Context, b OperationalBlocking) (*OperationalBlocking, error)
	ListBlockingsIntersecting(ctx context.Context, start, end time.Time, filter *BlockingFilter) ([]OperationalBlocking, error)
}
