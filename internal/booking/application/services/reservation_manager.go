package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/internal/shared/infrastructure/eventbus"
	"github.com/telensor/agenda/pkg/observability"
)

// ReservationRequest is one create-reservation command. EmployeeID and
// EquipmentID are optional; when omitted the availability search assigns
// them.
type ReservationRequest struct {
	ServiceID   string
	EmployeeID  string
	EquipmentID string
	Start       time.Time
	End         time.Time
	ScenarioID  string
	Policy      domain.WindowPolicy
}

// ReservationManager creates reservations with a double-check against
// concurrent writers: conflict probe, availability confirmation, then an
// insert that re-probes under the store's lock.
type ReservationManager struct {
	availability *AvailabilityService
	store        domain.ReservationStore
	publisher    eventbus.Publisher
	logger       *slog.Logger
	metrics      observability.Metrics
}

// NewReservationManager creates a new reservation manager.
func NewReservationManager(
	availability *AvailabilityService,
	store domain.ReservationStore,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
) *ReservationManager {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ReservationManager{
		availability: availability,
		store:        store,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
	}
}

// Create validates the request, confirms the slot through the availability
// service and inserts the reservation. Exactly one of several concurrent
// creates for the same slot succeeds; the rest fail with ErrConflict.
func (m *ReservationManager) Create(ctx context.Context, req ReservationRequest) (*domain.Reservation, error) {
	if !req.End.After(req.Start) {
		return nil, domain.ErrInvalidRange
	}

	scenario, err := m.availability.loadScenario(req.ScenarioID)
	if err != nil {
		return nil, err
	}
	svc, err := m.availability.resolveService(ctx, scenario, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if length := int(req.End.Sub(req.Start) / time.Minute); length != svc.TotalSlotMin() {
		return nil, domain.ErrInvalidSlotLength
	}

	conflict, err := m.store.HasConflict(ctx, req.EmployeeID, req.EquipmentID, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.ErrConflict
	}

	slots, err := m.availability.FindSlots(ctx, AvailabilityRequest{
		ServiceID:   req.ServiceID,
		EmployeeID:  req.EmployeeID,
		EquipmentID: req.EquipmentID,
		Start:       req.Start,
		End:         req.End,
		ScenarioID:  req.ScenarioID,
		Policy:      req.Policy,
	})
	if err != nil {
		return nil, err
	}
	match, ok := exactMatch(slots, req)
	if !ok {
		// A concurrent writer may have taken the slot between the probe
		// and the search.
		conflict, err = m.store.HasConflict(ctx, req.EmployeeID, req.EquipmentID, req.Start, req.End)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrConflict
		}
		return nil, domain.ErrSlotUnavailable
	}

	reservation, err := m.store.Add(ctx, domain.NewReservation{
		ServiceID:   req.ServiceID,
		EmployeeID:  match.EmployeeID,
		EquipmentID: match.EquipmentID,
		Start:       req.Start,
		End:         req.End,
		ScenarioID:  req.ScenarioID,
	})
	if err != nil {
		return nil, err
	}

	m.metrics.Counter(observability.MetricReservationsCreated, 1)
	m.logger.Info("reservation created",
		"reservation_id", reservation.ReservationID,
		"service_id", reservation.ServiceID,
		"employee_id", reservation.EmployeeID,
		"equipment_id", reservation.EquipmentID,
	)
	event := domain.NewReservationCreated(reservation)
	publishEvent(ctx, m.publisher, m.logger, m.metrics, event)
	return reservation, nil
}

// exactMatch finds the slot mirroring the requested window and any caller
// supplied assignments.
func exactMatch(slots []Slot, req ReservationRequest) (Slot, bool) {
	for _, s := range slots {
		if !s.Start.Equal(req.Start) || !s.End.Equal(req.End) {
			continue
		}
		if req.EmployeeID != "" && s.EmployeeID != req.EmployeeID {
			continue
		}
		if req.EquipmentID != "" && s.EquipmentID != req.EquipmentID {
			continue
		}
		return s, true
	}
	return Slot{}, false
}
