package domain

// WindowPolicy controls how a service's attention window constrains a slot.
type WindowPolicy string

const (
	// WindowPolicyStartOnly bounds only the service start; the slot may end
	// past the attention window.
	WindowPolicyStartOnly WindowPolicy = "start_only"
	// WindowPolicyFullSlot additionally requires the whole buffered slot to
	// lie inside the attention window.
	WindowPolicyFullSlot WindowPolicy = "full_slot"
)

// Valid reports whether p is a recognized policy.
func (p WindowPolicy) Valid() bool {
	return p == WindowPolicyStartOnly || p == WindowPolicyFullSlot
}

// EquipmentPolicy selects among multiple feasible equipment for a slot.
type EquipmentPolicy string

const (
	// EquipmentPolicyServiceOrder prefers the smallest index in the
	// service's compatible-equipment list.
	EquipmentPolicyServiceOrder EquipmentPolicy = "service_order"
	// EquipmentPolicyLeastLoaded prefers the equipment with the fewest
	// blocked minutes over the base day.
	EquipmentPolicyLeastLoaded EquipmentPolicy = "least_loaded"
)

// Service describes a bookable service: net duration, surrounding buffers,
// an optional day-local attention window and the ordered list of compatible
// equipment.
type Service struct {
	ID              string          `json:"id"`
	DurationMin     int             `json:"duracion"`
	BufferBeforeMin int             `json:"buffer_previo"`
	BufferAfterMin  int             `json:"buffer_posterior"`
	AttentionWindow []int           `json:"horario_atencion,omitempty"`
	CompatibleEquip []string        `json:"equipos_compatibles,omitempty"`
	EquipmentPolicy EquipmentPolicy `json:"politica_seleccion_equipo,omitempty"`
}

// TotalSlotMin is the full buffered slot length in minutes.
func (s Service) TotalSlotMin() int {
	return s.BufferBeforeMin + s.DurationMin + s.BufferAfterMin
}

// RequiresEquipment reports whether the service enumerates compatible
// equipment and therefore every slot must carry one.
func (s Service) RequiresEquipment() bool { return len(s.CompatibleEquip) > 0 }

// IsCompatibleEquipment reports whether id appears in the compatible list.
// A service with no list accepts any equipment.
func (s Service) IsCompatibleEquipment(id string) bool {
	if len(s.CompatibleEquip) == 0 {
		return true
	}
	for _, eq := range s.CompatibleEquip {
		if eq == id {
			return true
		}
	}
	return false
}

// AttentionInterval returns the day-local attention window, if declared.
func (s Service) AttentionInterval() (Interval, bool) {
	if len(s.AttentionWindow) != 2 {
		return Interval{}, false
	}
	return Interval{Start: s.AttentionWindow[0], End: s.AttentionWindow[1]}, true
}

// SelectionPolicy returns the configured equipment policy, defaulting to
// service order.
func (s Service) SelectionPolicy() EquipmentPolicy {
	if s.EquipmentPolicy == EquipmentPolicyLeastLoaded {
		return EquipmentPolicyLeastLoaded
	}
	return EquipmentPolicyServiceOrder
}
