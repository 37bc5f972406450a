package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
)

// BlockQuery describes one aggregation pass: the minute-axis base, the
// absolute span of interest and the resources the caller will consider.
// Start and End cover the full day span so equipment loads are complete;
// ReqStart and ReqEnd carry the original request window for the occupation
// lookup.
type BlockQuery struct {
	Base       time.Time
	Start      time.Time
	End        time.Time
	ReqStart   time.Time
	ReqEnd     time.Time
	ServiceID  string
	ScenarioID string
	Scenario   *domain.Scenario
	// EmployeeIDs are the candidate employees; used to scope the occupation
	// lookup when no scenario overrides it.
	EmployeeIDs []string
}

// BlockSet is the aggregated unavailability for one search, keyed on the
// minute axis of the query's base midnight. Global intervals apply to every
// employee; equipment globals apply to every equipment.
type BlockSet struct {
	global          []domain.Interval
	byEmployee      map[string][]domain.Interval
	byEquipment     map[string][]domain.Interval
	equipmentGlobal []domain.Interval

	employeeCache  map[string][]domain.Interval
	equipmentCache map[string][]domain.Interval
}

func newBlockSet() *BlockSet {
	return &BlockSet{
		byEmployee:     make(map[string][]domain.Interval),
		byEquipment:    make(map[string][]domain.Interval),
		employeeCache:  make(map[string][]domain.Interval),
		equipmentCache: make(map[string][]domain.Interval),
	}
}

func (s *BlockSet) addGlobal(iv domain.Interval) {
	if !iv.Empty() {
		s.global = append(s.global, iv)
	}
}

func (s *BlockSet) addEmployee(id string, iv domain.Interval) {
	if iv.Empty() {
		return
	}
	if id == "" {
		s.global = append(s.global, iv)
		return
	}
	s.byEmployee[id] = append(s.byEmployee[id], iv)
}

func (s *BlockSet) addEquipment(id string, iv domain.Interval) {
	if iv.Empty() {
		return
	}
	if id == "" {
		s.equipmentGlobal = append(s.equipmentGlobal, iv)
		return
	}
	s.byEquipment[id] = append(s.byEquipment[id], iv)
}

// ForEmployee returns the normalized blocked intervals for one employee,
// including global blocks. Results are cached per set.
func (s *BlockSet) ForEmployee(id string) []domain.Interval {
	if cached, ok := s.employeeCache[id]; ok {
		return cached
	}
	merged := make([]domain.Interval, 0, len(s.global)+len(s.byEmployee[id]))
	merged = append(merged, s.global...)
	merged = append(merged, s.byEmployee[id]...)
	out := domain.Normalize(merged)
	s.employeeCache[id] = out
	return out
}

// ForEquipment returns the normalized blocked intervals for one equipment.
// Global business blocks do not apply here; they already suppress the slots
// through the employee side.
func (s *BlockSet) ForEquipment(id string) []domain.Interval {
	if cached, ok := s.equipmentCache[id]; ok {
		return cached
	}
	merged := make([]domain.Interval, 0, len(s.equipmentGlobal)+len(s.byEquipment[id]))
	merged = append(merged, s.equipmentGlobal...)
	merged = append(merged, s.byEquipment[id]...)
	out := domain.Normalize(merged)
	s.equipmentCache[id] = out
	return out
}

// EmployeeLoad is the number of blocked minutes for the employee inside the
// given window. Used to balance assignment across employees.
func (s *BlockSet) EmployeeLoad(id string, window domain.Interval) int {
	total := 0
	for _, iv := range domain.Intersect(s.ForEmployee(id), []domain.Interval{window}) {
		total += iv.Length()
	}
	return total
}

// EquipmentLoad is the number of blocked minutes for the equipment inside
// the given window.
func (s *BlockSet) EquipmentLoad(id string, window domain.Interval) int {
	total := 0
	for _, iv := range domain.Intersect(s.ForEquipment(id), []domain.Interval{window}) {
		total += iv.Length()
	}
	return total
}

// BlockingAggregator collects every source of unavailability into one
// BlockSet: scenario occupations (or the occupation repository), scenario
// exceptions, live reservations and persisted operational blockings.
type BlockingAggregator struct {
	occupations domain.OccupationRepository
	store       domain.ReservationStore
	logger      *slog.Logger
}

// NewBlockingAggregator creates a new aggregator. The occupation repository
// may be nil when every request carries a scenario.
func NewBlockingAggregator(occupations domain.OccupationRepository, store domain.ReservationStore, logger *slog.Logger) *BlockingAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockingAggregator{occupations: occupations, store: store, logger: logger}
}

// Collect builds the BlockSet for one query.
func (a *BlockingAggregator) Collect(ctx context.Context, q BlockQuery) (*BlockSet, error) {
	set := newBlockSet()

	if err := a.collectOccupations(ctx, q, set); err != nil {
		return nil, err
	}
	a.collectExceptions(q, set)
	if err := a.collectReservations(ctx, q, set); err != nil {
		return nil, err
	}
	if err := a.collectBlockings(ctx, q, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (a *BlockingAggregator) collectOccupations(ctx context.Context, q BlockQuery, set *BlockSet) error {
	if q.Scenario != nil {
		for _, occ := range q.Scenario.Occupations {
			set.addEmployee(occ.EmployeeID, domain.MinuteRange(q.Base, occ.Start, occ.End))
		}
		for _, occ := range q.Scenario.EquipmentOccupations {
			set.addEquipment(occ.EquipmentID, domain.MinuteRange(q.Base, occ.Start, occ.End))
		}
		return nil
	}
	if a.occupations == nil || len(q.EmployeeIDs) == 0 {
		return nil
	}
	occs, err := a.occupations.GetOccupations(ctx, q.EmployeeIDs, q.ReqStart, q.ReqEnd)
	if err != nil {
		return err
	}
	for _, occ := range occs {
		set.addEmployee(occ.EmployeeID, domain.MinuteRange(q.Base, occ.Start, occ.End))
	}
	return nil
}

func (a *BlockingAggregator) collectExceptions(q BlockQuery, set *BlockSet) {
	if q.Scenario == nil {
		return
	}
	for _, ex := range q.Scenario.Exceptions {
		iv := domain.MinuteRange(q.Base, ex.Start, ex.End)
		switch ex.Scope {
		case domain.ScopeBusiness:
			set.addGlobal(iv)
		case domain.ScopeEmployee:
			set.addEmployee(ex.EmployeeID, iv)
		case domain.ScopeEquipment:
			set.addEquipment(ex.EquipmentID, iv)
		case domain.ScopeService:
			if ex.ServiceID == "" || ex.ServiceID == q.ServiceID {
				set.addGlobal(iv)
			}
		default:
			a.logger.Warn("ignoring exception with unknown scope", "scope", string(ex.Scope))
		}
	}
}

func (a *BlockingAggregator) collectReservations(ctx context.Context, q BlockQuery, set *BlockSet) error {
	if a.store == nil {
		return nil
	}
	reservations, err := a.store.ListInRange(ctx, q.Start, q.End)
	if err != nil {
		return err
	}
	for _, r := range reservations {
		if !r.Blocks() || r.ScenarioID != q.ScenarioID {
			continue
		}
		iv := domain.MinuteRange(q.Base, r.Start, r.End)
		set.addEmployee(r.EmployeeID, iv)
		if r.EquipmentID != "" {
			set.addEquipment(r.EquipmentID, iv)
		}
	}
	return nil
}

func (a *BlockingAggregator) collectBlockings(ctx context.Context, q BlockQuery, set *BlockSet) error {
	if a.store == nil {
		return nil
	}
	blockings, err := a.store.ListBlockingsIntersecting(ctx, q.Start, q.End, nil)
	if err != nil {
		return err
	}
	for _, b := range blockings {
		iv := domain.MinuteRange(q.Base, b.Start, b.End)
		switch b.Scope {
		case domain.ScopeBusiness:
			set.addGlobal(iv)
		case domain.ScopeEmployee:
			if len(b.EmployeeIDs) == 0 {
				set.addGlobal(iv)
				continue
			}
			for _, id := range b.EmployeeIDs {
				set.addEmployee(id, iv)
			}
		case domain.ScopeEquipment:
			if len(b.EquipmentIDs) == 0 {
				set.addEquipment("", iv)
				continue
			}
			for _, id := range b.EquipmentIDs {
				set.addEquipment(id, iv)
			}
		case domain.ScopeService:
			if b.AppliesToService(q.ServiceID) {
				set.addGlobal(iv)
			}
		default:
			a.logger.Warn("ignoring blocking with unknown scope", "blocking_id", b.ID, "scope", string(b.Scope))
		}
	}
	return nil
}
