package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/pkg/observability"
)

const minutesPerDay = 1440

// AvailabilityRequest is one slot search. EmployeeID and EquipmentID are
// optional filters and select the regime: equipment set searches only that
// equipment, employee set searches only that employee, neither pools every
// eligible employee. ExcludeEmployeeID removes one employee from the
// candidate pool; the cascade uses it to sidestep a blocked employee.
type AvailabilityRequest struct {
	ServiceID         string
	EmployeeID        string
	EquipmentID       string
	Start             time.Time
	End               time.Time
	ScenarioID        string
	Policy            domain.WindowPolicy
	ExcludeEmployeeID string
}

// Slot is one bookable buffered slot with its assigned resources. Start and
// End bound the full slot including buffers; EquipmentID is empty when the
// service needs no equipment.
type Slot struct {
	Start       time.Time
	End         time.Time
	EmployeeID  string
	EquipmentID string
}

type regime int

const (
	regimePool regime = iota
	regimeByEmployee
	regimeByEquipment
)

// candidate is one feasible (pre-start, employee, equipment) triple before
// deduplication and selection.
type candidate struct {
	start       int
	employeeID  string
	equipmentID string
}

// AvailabilityService computes bookable slots. It composes the start
// constraint from request, business and service attention windows, subtracts
// every blocking source per employee and equipment, packs buffered slots
// into the free remainder and hands the candidates to the selector.
type AvailabilityService struct {
	services  domain.ServiceRepository
	schedules domain.ScheduleRepository
	scenarios domain.ScenarioLoader
	blocks    *BlockingAggregator
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewAvailabilityService creates a new availability service. The scenario
// loader may be nil when scenarios are not configured.
func NewAvailabilityService(
	services domain.ServiceRepository,
	schedules domain.ScheduleRepository,
	scenarios domain.ScenarioLoader,
	blocks *BlockingAggregator,
	logger *slog.Logger,
	metrics observability.Metrics,
) *AvailabilityService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AvailabilityService{
		services:  services,
		schedules: schedules,
		scenarios: scenarios,
		blocks:    blocks,
		logger:    logger,
		metrics:   metrics,
	}
}

// FindSlots runs one availability search and returns the selected slots
// sorted ascending by start instant. An exhausted search returns an empty
// slice, not an error.
func (s *AvailabilityService) FindSlots(ctx context.Context, req AvailabilityRequest) ([]Slot, error) {
	started := time.Now()
	s.metrics.Counter(observability.MetricAvailabilityRequests, 1)

	if !req.End.After(req.Start) {
		return nil, domain.ErrInvalidRange
	}
	policy := req.Policy
	if !policy.Valid() {
		policy = domain.WindowPolicyStartOnly
	}

	scenario, err := s.loadScenario(req.ScenarioID)
	if err != nil {
		return nil, err
	}
	svc, err := s.resolveService(ctx, scenario, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if req.EquipmentID != "" && !svc.IsCompatibleEquipment(req.EquipmentID) {
		return nil, domain.ErrInvalidEquipment
	}

	base := domain.StartOfDayUTC(req.Start)
	reqWin := domain.MinuteRange(base, req.Start, req.End)
	offsets := dayOffsets(reqWin)

	constraint := startConstraint(reqWin, scenario, svc, offsets)
	if len(constraint) == 0 {
		return []Slot{}, nil
	}

	reg := requestRegime(req)
	employees, err := s.resolveEmployees(ctx, scenario, req, svc, base, reg)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return []Slot{}, nil
	}

	employeeIDs := make([]string, 0, len(employees))
	for _, e := range employees {
		employeeIDs = append(employeeIDs, e.EmployeeID)
	}
	blockSet, err := s.blocks.Collect(ctx, BlockQuery{
		Base:        base,
		Start:       base,
		End:         domain.TimeAt(base, offsets[len(offsets)-1]+minutesPerDay),
		ReqStart:    req.Start,
		ReqEnd:      req.End,
		ServiceID:   svc.ID,
		ScenarioID:  req.ScenarioID,
		Scenario:    scenario,
		EmployeeIDs: employeeIDs,
	})
	if err != nil {
		return nil, err
	}

	candidates := collectCandidates(candidateInput{
		service:     svc,
		employees:   employees,
		scenario:    scenario,
		blocks:      blockSet,
		reqWin:      reqWin,
		offsets:     offsets,
		constraint:  constraint,
		policy:      policy,
		equipmentID: req.EquipmentID,
	})
	slots := selectSlots(reg, candidates, svc, blockSet, reqWin, base)

	s.metrics.Timing(observability.MetricAvailabilityDuration, time.Since(started))
	s.metrics.Histogram(observability.MetricAvailabilitySlots, float64(len(slots)))
	s.logger.Debug("availability computed",
		"service_id", svc.ID,
		"regime", reg.String(),
		"candidates", len(candidates),
		"slots", len(slots),
	)
	return slots, nil
}

func (s *AvailabilityService) loadScenario(id string) (*domain.Scenario, error) {
	if id == "" || s.scenarios == nil {
		return nil, nil
	}
	sc, err := s.scenarios.LoadScenario(id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		s.logger.Warn("scenario not found, falling back to repositories", "scenario_id", id)
	}
	return sc, nil
}

// resolveService prefers the scenario's service catalog over the repository.
func (s *AvailabilityService) resolveService(ctx context.Context, scenario *domain.Scenario, id string) (domain.Service, error) {
	if scenario != nil && scenario.Services != nil {
		svc, ok := scenario.ServiceByID(id)
		if !ok {
			return domain.Service{}, domain.ErrServiceNotFound
		}
		return svc, nil
	}
	if s.services == nil {
		return domain.Service{}, domain.ErrServiceNotFound
	}
	svc, err := s.services.GetService(ctx, id)
	if err != nil {
		return domain.Service{}, err
	}
	if svc == nil {
		return domain.Service{}, domain.ErrServiceNotFound
	}
	return *svc, nil
}

func (s *AvailabilityService) resolveEmployees(
	ctx context.Context,
	scenario *domain.Scenario,
	req AvailabilityRequest,
	svc domain.Service,
	base time.Time,
	reg regime,
) ([]domain.EmployeeSchedule, error) {
	var schedules []domain.EmployeeSchedule
	if scenario != nil && len(scenario.Employees) > 0 {
		schedules = scenario.Employees
	} else if s.schedules != nil {
		var err error
		schedules, err = s.schedules.GetEmployeeSchedules(ctx, base, domain.ScheduleFilter{
			ServiceID:   req.ServiceID,
			EquipmentID: req.EquipmentID,
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.EmployeeSchedule, 0, len(schedules))
	for _, e := range schedules {
		if !e.OffersService(svc.ID) {
			continue
		}
		if req.EmployeeID != "" && e.EmployeeID != req.EmployeeID {
			continue
		}
		if req.ExcludeEmployeeID != "" && e.EmployeeID == req.ExcludeEmployeeID {
			continue
		}
		if reg == regimeByEquipment && !e.OperatesEquipment(req.EquipmentID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func requestRegime(req AvailabilityRequest) regime {
	switch {
	case req.EquipmentID != "":
		return regimeByEquipment
	case req.EmployeeID != "":
		return regimeByEmployee
	default:
		return regimePool
	}
}

func (r regime) String() string {
	switch r {
	case regimeByEquipment:
		return "by_equipment"
	case regimeByEmployee:
		return "by_employee"
	default:
		return "pool"
	}
}

// dayOffsets returns the absolute day offsets the request touches; a window
// crossing midnight duplicates day-local windows one day forward.
func dayOffsets(reqWin domain.Interval) []int {
	offsets := []int{0}
	for off := minutesPerDay; off < reqWin.End; off += minutesPerDay {
		offsets = append(offsets, off)
	}
	return offsets
}

// replicate projects a day-local window onto the absolute axis at every
// day offset.
func replicate(iv domain.Interval, offsets []int) []domain.Interval {
	out := make([]domain.Interval, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, domain.Interval{Start: iv.Start + off, End: iv.End + off})
	}
	return out
}

// startConstraint intersects the request window with the business and
// service attention windows. Absent windows are skipped.
func startConstraint(reqWin domain.Interval, scenario *domain.Scenario, svc domain.Service, offsets []int) []domain.Interval {
	constraint := []domain.Interval{reqWin}
	if business, ok := scenario.BusinessInterval(); ok {
		constraint = domain.Intersect(constraint, replicate(business, offsets))
	}
	if attention, ok := svc.AttentionInterval(); ok {
		constraint = domain.Intersect(constraint, replicate(attention, offsets))
	}
	return constraint
}

type candidateInput struct {
	service     domain.Service
	employees   []domain.EmployeeSchedule
	scenario    *domain.Scenario
	blocks      *BlockSet
	reqWin      domain.Interval
	offsets     []int
	constraint  []domain.Interval
	policy      domain.WindowPolicy
	equipmentID string
}

// collectCandidates packs buffered slots per (employee, equipment) pair.
// Equipment free time is computed once per equipment and reused across the
// employee loop.
func collectCandidates(in candidateInput) []candidate {
	totalSlot := in.service.TotalSlotMin()
	if totalSlot <= 0 {
		return nil
	}
	attention, hasAttention := in.service.AttentionInterval()
	var attentionIvs []domain.Interval
	if hasAttention {
		attentionIvs = replicate(attention, in.offsets)
	}

	equipmentFree := make(map[string][]domain.Interval)
	var candidates []candidate
	for _, emp := range in.employees {
		work, ok := emp.WorkInterval()
		if !ok {
			continue
		}
		empFree := domain.Subtract(replicate(work, in.offsets), in.blocks.ForEmployee(emp.EmployeeID))
		empFree = domain.Intersect(empFree, []domain.Interval{in.reqWin})
		if len(empFree) == 0 {
			continue
		}

		for _, eqID := range equipmentOptions(in.service, emp, in.equipmentID) {
			pairFree := empFree
			if eqID != "" {
				free, ok := equipmentFree[eqID]
				if !ok {
					free = freeForEquipment(in.scenario, eqID, in.offsets, in.reqWin, in.blocks)
					equipmentFree[eqID] = free
				}
				pairFree = domain.Intersect(pairFree, free)
			}
			if in.policy == domain.WindowPolicyFullSlot && hasAttention {
				pairFree = domain.Intersect(pairFree, attentionIvs)
			}
			if len(pairFree) == 0 {
				continue
			}
			for _, w := range in.constraint {
				for _, pre := range domain.PackSlots(w, pairFree, totalSlot, in.service.BufferBeforeMin) {
					candidates = append(candidates, candidate{start: pre, employeeID: emp.EmployeeID, equipmentID: eqID})
				}
			}
		}
	}
	return candidates
}

// equipmentOptions lists the equipment a candidate slot may carry for one
// employee, in service order. An empty string marks a slot without
// equipment.
func equipmentOptions(svc domain.Service, emp domain.EmployeeSchedule, requested string) []string {
	if requested != "" {
		if emp.OperatesEquipment(requested) {
			return []string{requested}
		}
		return nil
	}
	if !svc.RequiresEquipment() {
		return []string{""}
	}
	options := make([]string, 0, len(svc.CompatibleEquip))
	for _, id := range svc.CompatibleEquip {
		if emp.OperatesEquipment(id) {
			options = append(options, id)
		}
	}
	return options
}

// freeForEquipment subtracts the equipment's blocks from its operating
// window. Equipment without a declared window operates across the whole
// request window.
func freeForEquipment(scenario *domain.Scenario, eqID string, offsets []int, reqWin domain.Interval, blocks *BlockSet) []domain.Interval {
	operating := []domain.Interval{reqWin}
	if eq, ok := scenario.EquipmentByID(eqID); ok {
		if iv, declared := eq.OperatingInterval(); declared {
			operating = replicate(iv, offsets)
		}
	}
	return domain.Subtract(operating, blocks.ForEquipment(eqID))
}
