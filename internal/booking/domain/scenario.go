package domain

// Scenario packages the domain data for one test or demo configuration.
// When a request names a scenario it overrides the repository lookups for
// services, employees, equipment, occupations and exceptions.
type Scenario struct {
	BusinessWindow       []int                 `json:"horario_atencion_negocio,omitempty"`
	Services             map[string]Service    `json:"servicios,omitempty"`
	Employees            []EmployeeSchedule    `json:"empleados,omitempty"`
	Equipment            []Equipment           `json:"equipos,omitempty"`
	Occupations          []Occupation          `json:"ocupaciones,omitempty"`
	EquipmentOccupations []EquipmentOccupation `json:"ocupaciones_equipo,omitempty"`
	Exceptions           []Exception           `json:"excepciones,omitempty"`
}

// BusinessInterval returns the day-local business attention window, if set.
func (sc *Scenario) BusinessInterval() (Interval, bool) {
	if sc == nil || len(sc.BusinessWindow) != 2 {
		return Interval{}, false
	}
	return Interval{Start: sc.BusinessWindow[0], End: sc.BusinessWindow[1]}, true
}

// ServiceByID returns the scenario's definition of a service, if present.
func (sc *Scenario) ServiceByID(id string) (Service, bool) {
	if sc == nil || sc.Services == nil {
		return Service{}, false
	}
	svc, ok := sc.Services[id]
	if ok && svc.ID == "" {
		svc.ID = id
	}
	return svc, ok
}

// EquipmentByID returns the scenario's definition of an equipment.
func (sc *Scenario) EquipmentByID(id string) (Equipment, bool) {
	if sc == nil {
		return Equipment{}, false
	}
	for _, eq := range sc.Equipment {
		if eq.EquipmentID == id {
			return eq, true
		}
	}
	return Equipment{}, false
}
