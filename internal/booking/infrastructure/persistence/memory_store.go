package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
)

// MemoryStore is the default reservation store: two slices guarded by one
// mutex. The conflict re-check and the append happen inside the same
// critical section, so concurrent creates for the same slot resolve to
// exactly one winner.
type MemoryStore struct {
	mu           sync.Mutex
	reservations []domain.Reservation
	blockings    []domain.OperationalBlocking
	seq          int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ domain.ReservationStore = (*MemoryStore)(nil)

// ListReservations returns a snapshot of every reservation.
func (s *MemoryStore) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Reservation, len(s.reservations))
	copy(out, s.reservations)
	return out, nil
}

// ListInRange returns every reservation overlapping [start, end).
func (s *MemoryStore) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if r.OverlapsRange(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// HasConflict reports whether an overlapping reservation matches the given
// employee and, when given, the equipment. Empty criteria are skipped; a
// probe with neither matches nothing. The check is state-agnostic.
func (s *MemoryStore) HasConflict(ctx context.Context, employeeID, equipmentID string, start, end time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflictLocked(employeeID, equipmentID, start, end), nil
}

func (s *MemoryStore) conflictLocked(employeeID, equipmentID string, start, end time.Time) bool {
	if employeeID == "" && equipmentID == "" {
		return false
	}
	for _, r := range s.reservations {
		if !r.OverlapsRange(start, end) {
			continue
		}
		if employeeID != "" && r.EmployeeID != employeeID {
			continue
		}
		if equipmentID != "" && r.EquipmentID != equipmentID {
			continue
		}
		return true
	}
	return false
}

// Add inserts a reservation after re-checking, under the lock, that neither
// the employee nor the equipment is double-booked.
func (s *MemoryStore) Add(ctx context.Context, nr domain.NewReservation) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictLocked(nr.EmployeeID, "", nr.Start, nr.End) {
		return nil, domain.ErrConflict
	}
	if nr.EquipmentID != "" && s.conflictLocked("", nr.EquipmentID, nr.Start, nr.End) {
		return nil, domain.ErrConflict
	}

	r := domain.Reservation{
		ReservationID: s.nextIDLocked("R"),
		ServiceID:     nr.ServiceID,
		EmployeeID:    nr.EmployeeID,
		EquipmentID:   nr.EquipmentID,
		Start:         nr.Start,
		End:           nr.End,
		CreatedAt:     time.Now().UTC(),
		State:         domain.StateConfirmed,
		Version:       1,
		ScenarioID:    nr.ScenarioID,
	}
	s.reservations = append(s.reservations, r)
	return &r, nil
}

// Update mutates a stored reservation in place and bumps its version.
func (s *MemoryStore) Update(ctx context.Context, id string, patch domain.ReservationPatch) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reservations {
		if s.reservations[i].ReservationID != id {
			continue
		}
		r := &s.reservations[i]
		if patch.EmployeeID != nil {
			r.EmployeeID = *patch.EmployeeID
		}
		if patch.EquipmentID != nil {
			r.EquipmentID = *patch.EquipmentID
		}
		if patch.State != nil {
			r.State = *patch.State
		}
		r.Version++
		out := *r
		return &out, nil
	}
	return nil, domain.ErrReservationNotFound
}

// AddBlocking appends an operational blocking and assigns its id.
func (s *MemoryStore) AddBlocking(ctx context.Context, b domain.OperationalBlocking) (*domain.OperationalBlocking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextIDLocked("B")
	s.blockings = append(s.blockings, b)
	out := b
	return &out, nil
}

// ListBlockingsIntersecting returns blockings overlapping [start, end),
// optionally narrowed to those applying to the filtered resources.
func (s *MemoryStore) ListBlockingsIntersecting(ctx context.Context, start, end time.Time, filter *domain.BlockingFilter) ([]domain.OperationalBlocking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OperationalBlocking
	for _, b := range s.blockings {
		if !b.OverlapsRange(start, end) {
			continue
		}
		if filter != nil && !blockingMatches(b, filter) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func blockingMatches(b domain.OperationalBlocking, filter *domain.BlockingFilter) bool {
	switch b.Scope {
	case domain.ScopeBusiness:
		return true
	case domain.ScopeEmployee:
		for _, id := range filter.EmployeeIDs {
			if b.AppliesToEmployee(id) {
				return true
			}
		}
		return len(filter.EmployeeIDs) == 0
	case domain.ScopeEquipment:
		for _, id := range filter.EquipmentIDs {
			if b.AppliesToEquipment(id) {
				return true
			}
		}
		return len(filter.EquipmentIDs) == 0
	case domain.ScopeService:
		for _, id := range filter.ServiceIDs {
			if b.AppliesToService(id) {
				return true
			}
		}
		return len(filter.ServiceIDs) == 0
	}
	return false
}

// Reset drops every reservation and blocking. Test support.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = nil
	s.blockings = nil
	s.seq = 0
}

func (s *MemoryStore) nextIDLocked(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%s-%06d", prefix, time.Now().UTC().Format("20060102T150405Z"), s.seq)
}
