package domain

import "time"

// EmployeeSchedule is one employee's working day: a day-local work window in
// minutes plus the declared service and equipment assignments.
type EmployeeSchedule struct {
	EmployeeID       string   `json:"empleado_id"`
	WorkWindow       []int    `json:"horario_trabajo"`
	AssignedServices []string `json:"servicios_asignados,omitempty"`
	AssignedEquip    []string `json:"equipos_asignados,omitempty"`
}

// WorkInterval returns the day-local work window.
func (e EmployeeSchedule) WorkInterval() (Interval, bool) {
	if len(e.WorkWindow) != 2 {
		return Interval{}, false
	}
	return Interval{Start: e.WorkWindow[0], End: e.WorkWindow[1]}, true
}

// OffersService reports whether the employee may perform the service.
// Schedules that declare no assignments offer every service.
func (e EmployeeSchedule) OffersService(serviceID string) bool {
	if len(e.AssignedServices) == 0 {
		return true
	}
	for _, id := range e.AssignedServices {
		if id == serviceID {
			return true
		}
	}
	return false
}

// OperatesEquipment reports whether the employee may operate the equipment.
// Schedules that declare no equipment assignments operate any equipment.
func (e EmployeeSchedule) OperatesEquipment(equipmentID string) bool {
	if len(e.AssignedEquip) == 0 {
		return true
	}
	for _, id := range e.AssignedEquip {
		if id == equipmentID {
			return true
		}
	}
	return false
}

// Equipment is a bookable resource with an optional day-local operating
// window. Without one it operates across the whole requested window.
type Equipment struct {
	EquipmentID     string `json:"equipo_id"`
	OperatingWindow []int  `json:"horario_operativo,omitempty"`
}

// OperatingInterval returns the day-local operating window, if declared.
func (eq Equipment) OperatingInterval() (Interval, bool) {
	if len(eq.OperatingWindow) != 2 {
		return Interval{}, false
	}
	return Interval{Start: eq.OperatingWindow[0], End: eq.OperatingWindow[1]}, true
}

// Occupation is a pre-existing busy range for an employee, in UTC instants.
type Occupation struct {
	EmployeeID string    `json:"empleado_id"`
	Start      time.Time `json:"inicio"`
	End        time.Time `json:"fin"`
}

// EquipmentOccupation is a pre-existing busy range for an equipment.
type EquipmentOccupation struct {
	EquipmentID string    `json:"equipo_id"`
	Start       time.Time `json:"inicio"`
	End         time.Time `json:"fin"`
}
