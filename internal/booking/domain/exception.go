package domain

import "time"

// BlockScope classifies exceptions and operational blockings by the kind of
// resource they affect.
type BlockScope string

const (
	ScopeBusiness  BlockScope = "business"
	ScopeEmployee  BlockScope = "employee"
	ScopeEquipment BlockScope = "equipment"
	ScopeService   BlockScope = "service"
)

// Valid reports whether s is a recognized scope.
func (s BlockScope) Valid() bool {
	switch s {
	case ScopeBusiness, ScopeEmployee, ScopeEquipment, ScopeService:
		return true
	}
	return false
}

// Exception is a scoped neutral blocking declared in a scenario fixture.
// The engine never inspects the reason; it only subtracts the range from
// whatever the scope targets. Scenario exceptions carry at most one target.
type Exception struct {
	Scope       BlockScope `json:"scope"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	EmployeeID  string     `json:"empleado_id,omitempty"`
	EquipmentID string     `json:"equipo_id,omitempty"`
	ServiceID   string     `json:"servicio_id,omitempty"`
}
