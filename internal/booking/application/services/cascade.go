package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/internal/shared/infrastructure/eventbus"
	"github.com/telensor/agenda/pkg/observability"
)

// BlockingRequest is one create-blocking command. Empty target lists apply
// the blocking to every resource of its scope.
type BlockingRequest struct {
	Scope        domain.BlockScope
	Start        time.Time
	End          time.Time
	Reason       string
	EmployeeIDs  []string
	EquipmentIDs []string
	ServiceIDs   []string
}

// ProcessedReservation is the cascade outcome for one affected reservation.
type ProcessedReservation struct {
	ReservationID string
	State         domain.ReservationState
	EmployeeID    string
	EquipmentID   string
}

// CascadeResult bundles the persisted blocking with the per-reservation
// outcomes.
type CascadeResult struct {
	Blocking  *domain.OperationalBlocking
	Processed []ProcessedReservation
}

// CascadeManager registers operational blockings and reconciles the
// reservations they invalidate: same-slot reassignment to another employee
// where possible, PENDING_RESCHEDULE where not.
type CascadeManager struct {
	availability *AvailabilityService
	store        domain.ReservationStore
	scenarios    domain.ScenarioLoader
	publisher    eventbus.Publisher
	logger       *slog.Logger
	metrics      observability.Metrics
}

// NewCascadeManager creates a new cascade manager.
func NewCascadeManager(
	availability *AvailabilityService,
	store domain.ReservationStore,
	scenarios domain.ScenarioLoader,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
) *CascadeManager {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CascadeManager{
		availability: availability,
		store:        store,
		scenarios:    scenarios,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
	}
}

// ApplyBlocking persists the blocking and processes every overlapping
// reservation matching its scope. The blocking is persisted first so the
// availability probes already see it.
func (m *CascadeManager) ApplyBlocking(ctx context.Context, req BlockingRequest) (*CascadeResult, error) {
	if !req.End.After(req.Start) {
		return nil, domain.ErrInvalidRange
	}
	if !req.Scope.Valid() {
		return nil, domain.ErrInvalidScope
	}

	blocking, err := m.store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope:        req.Scope,
		Start:        req.Start,
		End:          req.End,
		Reason:       req.Reason,
		EmployeeIDs:  req.EmployeeIDs,
		EquipmentIDs: req.EquipmentIDs,
		ServiceIDs:   req.ServiceIDs,
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := m.store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{Blocking: blocking, Processed: []ProcessedReservation{}}
	for _, r := range snapshot {
		if !r.Blocks() || !r.OverlapsRange(blocking.Start, blocking.End) || !scopeMatches(blocking, r) {
			continue
		}
		outcome, err := m.processReservation(ctx, blocking, r)
		if err != nil {
			return nil, err
		}
		result.Processed = append(result.Processed, outcome)
	}

	m.metrics.Counter(observability.MetricBlockingsApplied, 1, observability.T("scope", string(blocking.Scope)))
	m.logger.Info("blocking applied",
		"blocking_id", blocking.ID,
		"scope", string(blocking.Scope),
		"processed", len(result.Processed),
	)
	publishEvent(ctx, m.publisher, m.logger, m.metrics, domain.NewBlockingApplied(blocking, len(result.Processed)))
	return result, nil
}

func scopeMatches(b *domain.OperationalBlocking, r domain.Reservation) bool {
	switch b.Scope {
	case domain.ScopeBusiness:
		return true
	case domain.ScopeEmployee:
		return b.AppliesToEmployee(r.EmployeeID)
	case domain.ScopeEquipment:
		return r.EquipmentID != "" && b.AppliesToEquipment(r.EquipmentID)
	case domain.ScopeService:
		return b.AppliesToService(r.ServiceID)
	}
	return false
}

func (m *CascadeManager) processReservation(ctx context.Context, b *domain.OperationalBlocking, r domain.Reservation) (ProcessedReservation, error) {
	if b.Scope == domain.ScopeBusiness {
		return m.markPending(ctx, b, r)
	}
	return m.reassign(ctx, b, r)
}

// reassign attempts a same-slot move to another employee. The original
// equipment is kept unless the blocking targets it.
func (m *CascadeManager) reassign(ctx context.Context, b *domain.OperationalBlocking, r domain.Reservation) (ProcessedReservation, error) {
	equipmentID := r.EquipmentID
	equipmentBlocked := equipmentID != "" && b.AppliesToEquipment(equipmentID)
	if equipmentBlocked {
		equipmentID = ""
	}

	slots, err := m.availability.FindSlots(ctx, AvailabilityRequest{
		ServiceID:         r.ServiceID,
		EquipmentID:       equipmentID,
		Start:             r.Start,
		End:               r.End,
		ScenarioID:        r.ScenarioID,
		ExcludeEmployeeID: r.EmployeeID,
	})
	if err != nil {
		return ProcessedReservation{}, err
	}
	for _, s := range slots {
		if s.Start.Equal(r.Start) && s.End.Equal(r.End) && s.EmployeeID != r.EmployeeID {
			return m.applyReassignment(ctx, b, r, s.EmployeeID, s.EquipmentID)
		}
	}

	// The probe sees the victim's own reservation still holding its
	// resources, so a same-equipment move can never surface there. Fall
	// back to a direct scan of the scenario's employees.
	if !equipmentBlocked {
		if candidate, ok := m.fallbackEmployee(ctx, b, r); ok {
			return m.applyReassignment(ctx, b, r, candidate, r.EquipmentID)
		}
	}
	return m.markPending(ctx, b, r)
}

// fallbackEmployee scans the scenario's employees for one that offers the
// service, is not targeted by the blocking and has no reservation of their
// own over the window.
func (m *CascadeManager) fallbackEmployee(ctx context.Context, b *domain.OperationalBlocking, r domain.Reservation) (string, bool) {
	if m.scenarios == nil || r.ScenarioID == "" {
		return "", false
	}
	scenario, err := m.scenarios.LoadScenario(r.ScenarioID)
	if err != nil || scenario == nil {
		return "", false
	}
	for _, emp := range scenario.Employees {
		if emp.EmployeeID == r.EmployeeID || !emp.OffersService(r.ServiceID) {
			continue
		}
		if b.AppliesToEmployee(emp.EmployeeID) {
			continue
		}
		conflict, err := m.store.HasConflict(ctx, emp.EmployeeID, r.EquipmentID, r.Start, r.End)
		if err != nil || conflict {
			continue
		}
		return emp.EmployeeID, true
	}
	return "", false
}

func (m *CascadeManager) applyReassignment(ctx context.Context, b *domain.OperationalBlocking, r domain.Reservation, employeeID, equipmentID string) (ProcessedReservation, error) {
	state := domain.StateReassigned
	updated, err := m.store.Update(ctx, r.ReservationID, domain.ReservationPatch{
		EmployeeID:  &employeeID,
		EquipmentID: &equipmentID,
		State:       &state,
	})
	if err != nil {
		return ProcessedReservation{}, err
	}
	m.metrics.Counter(observability.MetricCascadeReassigned, 1)
	m.logger.Info("reservation reassigned",
		"reservation_id", r.ReservationID,
		"blocking_id", b.ID,
		"employee_id", employeeID,
		"equipment_id", equipmentID,
	)
	publishEvent(ctx, m.publisher, m.logger, m.metrics, domain.NewReservationReassigned(updated, b.ID, r.EmployeeID, r.EquipmentID))
	return ProcessedReservation{
		ReservationID: updated.ReservationID,
		State:         updated.State,
		EmployeeID:    updated.EmployeeID,
		EquipmentID:   updated.EquipmentID,
	}, nil
}

func (m *CascadeManager) markPending(ctx context.Context, b *domain.OperationalBlocking, r domain.Reservation) (ProcessedReservation, error) {
	state := domain.StatePendingReschedule
	updated, err := m.store.Update(ctx, r.ReservationID, domain.ReservationPatch{State: &state})
	if err != nil {
		return ProcessedReservation{}, err
	}
	m.metrics.Counter(observability.MetricCascadePending, 1)
	m.logger.Info("reservation pending reschedule",
		"reservation_id", r.ReservationID,
		"blocking_id", b.ID,
	)
	publishEvent(ctx, m.publisher, m.logger, m.metrics, domain.NewReservationPendingReschedule(r.ReservationID, b.ID))
	return ProcessedReservation{
		ReservationID: updated.ReservationID,
		State:         updated.State,
		EmployeeID:    updated.EmployeeID,
		EquipmentID:   updated.EquipmentID,
	}, nil
}
