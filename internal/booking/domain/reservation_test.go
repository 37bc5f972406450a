package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/telensor/agenda/internal/booking/domain"
)

func TestReservation_OverlapsRange(t *testing.T) {
	start := time.Date(2025, 11, 6, 10, 0, 0, 0, time.UTC)
	r := domain.Reservation{Start: start, End: start.Add(45 * time.Minute)}

	assert.True(t, r.OverlapsRange(start.Add(30*time.Minute), start.Add(time.Hour)))
	assert.False(t, r.OverlapsRange(start.Add(45*time.Minute), start.Add(time.Hour)))
	assert.False(t, r.OverlapsRange(start.Add(-time.Hour), start))
}

func TestReservation_Blocks(t *testing.T) {
	assert.True(t, domain.Reservation{State: domain.StateConfirmed}.Blocks())
	assert.True(t, domain.Reservation{State: domain.StateReassigned}.Blocks())
	assert.False(t, domain.Reservation{State: domain.StatePendingReschedule}.Blocks())
}

func TestOperationalBlocking_EmptyTargetsCoverScope(t *testing.T) {
	b := domain.OperationalBlocking{Scope: domain.ScopeEmployee}

	assert.True(t, b.AppliesToEmployee("E1"))
	assert.False(t, b.AppliesToEquipment("EQ1"))
	assert.False(t, b.AppliesToService("SVC1"))
}

func TestOperationalBlocking_TargetedScope(t *testing.T) {
	b := domain.OperationalBlocking{
		Scope:        domain.ScopeEquipment,
		EquipmentIDs: []string{"EQ1", "EQ2"},
	}

	assert.True(t, b.AppliesToEquipment("EQ2"))
	assert.False(t, b.AppliesToEquipment("EQ3"))
	assert.False(t, b.AppliesToEmployee("EQ1"))
}

func TestBlockScope_Valid(t *testing.T) {
	assert.True(t, domain.ScopeBusiness.Valid())
	assert.True(t, domain.ScopeService.Valid())
	assert.False(t, domain.BlockScope("warehouse").Valid())
}

func TestService_TotalSlotAndCompatibility(t *testing.T) {
	svc := domain.Service{
		DurationMin:     30,
		BufferBeforeMin: 10,
		BufferAfterMin:  5,
		CompatibleEquip: []string{"EQ1", "EQ2"},
	}

	assert.Equal(t, 45, svc.TotalSlotMin())
	assert.True(t, svc.RequiresEquipment())
	assert.True(t, svc.IsCompatibleEquipment("EQ2"))
	assert.False(t, svc.IsCompatibleEquipment("EQ9"))
}

func TestService_NoEquipmentListAcceptsAny(t *testing.T) {
	svc := domain.Service{DurationMin: 30}

	assert.False(t, svc.RequiresEquipment())
	assert.True(t, svc.IsCompatibleEquipment("EQ_ANY"))
	assert.Equal(t, domain.EquipmentPolicyServiceOrder, svc.SelectionPolicy())
}

func TestEmployeeSchedule_EmptyAssignmentsMeanAll(t *testing.T) {
	e := domain.EmployeeSchedule{EmployeeID: "E1", WorkWindow: []int{540, 1020}}

	assert.True(t, e.OffersService("SVC1"))
	assert.True(t, e.OperatesEquipment("EQ1"))

	e.AssignedServices = []string{"SVC2"}
	e.AssignedEquip = []string{"EQ2"}
	assert.False(t, e.OffersService("SVC1"))
	assert.True(t, e.OffersService("SVC2"))
	assert.False(t, e.OperatesEquipment("EQ1"))
	assert.True(t, e.OperatesEquipment("EQ2"))
}

func TestScenario_NilReceiverLookups(t *testing.T) {
	var sc *domain.Scenario

	_, ok := sc.BusinessInterval()
	assert.False(t, ok)
	_, ok = sc.ServiceByID("SVC1")
	assert.False(t, ok)
	_, ok = sc.EquipmentByID("EQ1")
	assert.False(t, ok)
}

func TestScenario_ServiceByIDFillsID(t *testing.T) {
	sc := &domain.Scenario{Services: map[string]domain.Service{
		"SVC1": {DurationMin: 60},
	}}

	svc, ok := sc.ServiceByID("SVC1")
	assert.True(t, ok)
	assert.Equal(t, "SVC1", svc.ID)
}
