package domain

import "errors"

var (
	// ErrInvalidRange means the requested window has end <= start.
	ErrInvalidRange = errors.New("end must be after start")
	// ErrInvalidEquipment means the requested equipment is not compatible
	// with the service.
	ErrInvalidEquipment = errors.New("equipment not compatible with service")
	// ErrServiceNotFound means neither the scenario nor the repository knows
	// the service.
	ErrServiceNotFound = errors.New("service not found")
	// ErrInvalidSlotLength means the reservation window does not equal the
	// service's total slot length.
	ErrInvalidSlotLength = errors.New("slot length does not match service")
	// ErrSlotUnavailable means availability produced no slot matching the
	// requested reservation.
	ErrSlotUnavailable = errors.New("slot not available")
	// ErrConflict means an overlapping reservation already holds the slot.
	ErrConflict = errors.New("slot already reserved")
	// ErrReservationNotFound means no stored reservation has the given id.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrInvalidScope means a blocking request carries an unknown scope.
	ErrInvalidScope = errors.New("unknown blocking scope")
)
