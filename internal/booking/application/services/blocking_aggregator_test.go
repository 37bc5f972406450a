package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telensor/agenda/internal/booking/application/services"
	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/internal/booking/infrastructure/persistence"
)

func baseDay() time.Time {
	return time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)
}

func TestCollect_ScenarioOccupationsAndExceptions(t *testing.T) {
	store := persistence.NewMemoryStore()
	aggregator := services.NewBlockingAggregator(nil, store, nil)
	base := baseDay()

	scenario := &domain.Scenario{
		Occupations: []domain.Occupation{
			{EmployeeID: "E1", Start: at(10, 0), End: at(10, 30)},
		},
		EquipmentOccupations: []domain.EquipmentOccupation{
			{EquipmentID: "EQ1", Start: at(13, 0), End: at(14, 0)},
		},
		Exceptions: []domain.Exception{
			{Scope: domain.ScopeBusiness, Start: at(12, 0), End: at(12, 30)},
			{Scope: domain.ScopeEmployee, EmployeeID: "E2", Start: at(9, 0), End: at(9, 15)},
			{Scope: domain.ScopeService, ServiceID: "SVC_OTHER", Start: at(15, 0), End: at(16, 0)},
		},
	}

	set, err := aggregator.Collect(context.Background(), services.BlockQuery{
		Base:       base,
		Start:      base,
		End:        base.AddDate(0, 0, 1),
		ReqStart:   at(8, 0),
		ReqEnd:     at(18, 0),
		ServiceID:  "SVC1",
		ScenarioID: "x",
		Scenario:   scenario,
	})
	require.NoError(t, err)

	// E1: own occupation plus the business exception.
	assert.Equal(t,
		[]domain.Interval{{Start: 600, End: 630}, {Start: 720, End: 750}},
		set.ForEmployee("E1"))
	// E2: targeted exception plus the business exception. The service
	// exception names a different service and is dropped.
	assert.Equal(t,
		[]domain.Interval{{Start: 540, End: 555}, {Start: 720, End: 750}},
		set.ForEmployee("E2"))
	// Business exceptions do not block equipment directly.
	assert.Equal(t,
		[]domain.Interval{{Start: 780, End: 840}},
		set.ForEquipment("EQ1"))
}

func TestCollect_MatchingServiceExceptionIsGlobal(t *testing.T) {
	store := persistence.NewMemoryStore()
	aggregator := services.NewBlockingAggregator(nil, store, nil)
	base := baseDay()

	scenario := &domain.Scenario{
		Exceptions: []domain.Exception{
			{Scope: domain.ScopeService, ServiceID: "SVC1", Start: at(15, 0), End: at(16, 0)},
		},
	}

	set, err := aggregator.Collect(context.Background(), services.BlockQuery{
		Base:      base,
		Start:     base,
		End:       base.AddDate(0, 0, 1),
		ServiceID: "SVC1",
		Scenario:  scenario,
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Interval{{Start: 900, End: 960}}, set.ForEmployee("E1"))
}

func TestCollect_ReservationsBlockBothResources(t *testing.T) {
	store := persistence.NewMemoryStore()
	aggregator := services.NewBlockingAggregator(nil, store, nil)
	base := baseDay()
	ctx := context.Background()

	_, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: at(9, 0), End: at(9, 45), ScenarioID: "s1",
	})
	require.NoError(t, err)

	// A pending reservation no longer holds its slot.
	pending, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E2",
		Start: at(11, 0), End: at(11, 45), ScenarioID: "s1",
	})
	require.NoError(t, err)
	state := domain.StatePendingReschedule
	_, err = store.Update(ctx, pending.ReservationID, domain.ReservationPatch{State: &state})
	require.NoError(t, err)

	set, err := aggregator.Collect(ctx, services.BlockQuery{
		Base:       base,
		Start:      base,
		End:        base.AddDate(0, 0, 1),
		ScenarioID: "s1",
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Interval{{Start: 540, End: 585}}, set.ForEmployee("E1"))
	assert.Equal(t, []domain.Interval{{Start: 540, End: 585}}, set.ForEquipment("EQ1"))
	assert.Empty(t, set.ForEmployee("E2"))
}

func TestCollect_ReservationsScopedToScenario(t *testing.T) {
	store := persistence.NewMemoryStore()
	aggregator := services.NewBlockingAggregator(nil, store, nil)
	base := baseDay()
	ctx := context.Background()

	_, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1",
		Start: at(9, 0), End: at(9, 45), ScenarioID: "other",
	})
	require.NoError(t, err)

	set, err := aggregator.Collect(ctx, services.BlockQuery{
		Base:       base,
		Start:      base,
		End:        base.AddDate(0, 0, 1),
		ScenarioID: "s1",
	})
	require.NoError(t, err)

	assert.Empty(t, set.ForEmployee("E1"))
}

func TestCollect_BlockingScopes(t *testing.T) {
	store := persistence.NewMemoryStore()
	aggregator := services.NewBlockingAggregator(nil, store, nil)
	base := baseDay()
	ctx := context.Background()

	_, err := store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope: domain.ScopeEmployee, EmployeeIDs: []string{"E1"},
		Start: at(9, 0), End: at(10, 0),
	})
	require.NoError(t, err)
	_, err = store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope: domain.ScopeEquipment,
		Start: at(13, 0), End: at(14, 0),
	})
	require.NoError(t, err)
	_, err = store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope: domain.ScopeService, ServiceIDs: []string{"SVC1"},
		Start: at(15, 0), End: at(15, 30),
	})
	require.NoError(t, err)

	set, err := aggregator.Collect(ctx, services.BlockQuery{
		Base:      base,
		Start:     base,
		End:       base.AddDate(0, 0, 1),
		ServiceID: "SVC1",
	})
	require.NoError(t, err)

	assert.Equal(t,
		[]domain.Interval{{Start: 540, End: 600}, {Start: 900, End: 930}},
		set.ForEmployee("E1"))
	assert.Equal(t, []domain.Interval{{Start: 900, End: 930}}, set.ForEmployee("E2"))
	// The untargeted equipment blocking covers every equipment.
	assert.Equal(t, []domain.Interval{{Start: 780, End: 840}}, set.ForEquipment("EQ_ANY"))
}

func TestBlockSet_Loads(t *testing.T) {
	store := persistence.NewMemoryStore()
	aggregator := services.NewBlockingAggregator(nil, store, nil)
	base := baseDay()
	ctx := context.Background()

	scenario := &domain.Scenario{
		Occupations: []domain.Occupation{
			{EmployeeID: "E1", Start: at(9, 0), End: at(9, 30)},
			{EmployeeID: "E1", Start: at(20, 0), End: at(21, 0)},
		},
		EquipmentOccupations: []domain.EquipmentOccupation{
			{EquipmentID: "EQ1", Start: at(10, 0), End: at(11, 0)},
		},
	}
	set, err := aggregator.Collect(ctx, services.BlockQuery{
		Base: base, Start: base, End: base.AddDate(0, 0, 1), Scenario: scenario,
	})
	require.NoError(t, err)

	window := domain.Interval{Start: 480, End: 720}
	assert.Equal(t, 30, set.EmployeeLoad("E1", window))
	assert.Equal(t, 0, set.EmployeeLoad("E2", window))
	assert.Equal(t, 60, set.EquipmentLoad("EQ1", domain.Interval{Start: 0, End: 1440}))
}
