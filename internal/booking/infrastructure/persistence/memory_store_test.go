package persistence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/internal/booking/infrastructure/persistence"
)

func slot(hour, minute, lengthMin int) (time.Time, time.Time) {
	start := time.Date(2025, 11, 6, hour, minute, 0, 0, time.UTC)
	return start, start.Add(time.Duration(lengthMin) * time.Minute)
}

func TestMemoryStore_AddAssignsIdentity(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	r, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: start, End: end, ScenarioID: "s1",
	})

	require.NoError(t, err)
	assert.Regexp(t, `^R-\d{8}T\d{6}Z-\d{6}$`, r.ReservationID)
	assert.Equal(t, domain.StateConfirmed, r.State)
	assert.Equal(t, 1, r.Version)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestMemoryStore_ConflictIsConjunctive(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	_, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: start, End: end,
	})
	require.NoError(t, err)

	// Single criterion matches on its own.
	conflict, err := store.HasConflict(ctx, "E1", "", start, end)
	require.NoError(t, err)
	assert.True(t, conflict)
	conflict, err = store.HasConflict(ctx, "", "EQ1", start, end)
	require.NoError(t, err)
	assert.True(t, conflict)

	// Both criteria must match the same reservation.
	conflict, err = store.HasConflict(ctx, "E2", "EQ1", start, end)
	require.NoError(t, err)
	assert.False(t, conflict)

	// A probe without criteria matches nothing.
	conflict, err = store.HasConflict(ctx, "", "", start, end)
	require.NoError(t, err)
	assert.False(t, conflict)

	// Touching ranges do not overlap.
	conflict, err = store.HasConflict(ctx, "E1", "", end, end.Add(45*time.Minute))
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestMemoryStore_AddRejectsEitherResourceTaken(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	_, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: start, End: end,
	})
	require.NoError(t, err)

	// Same employee, different equipment.
	_, err = store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ2",
		Start: start, End: end,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Different employee, same equipment.
	_, err = store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E2", EquipmentID: "EQ1",
		Start: start, End: end,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Different employee and equipment is fine.
	_, err = store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E2", EquipmentID: "EQ2",
		Start: start, End: end,
	})
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentAddsSingleWinner(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Add(ctx, domain.NewReservation{
				ServiceID: "SVC1", EmployeeID: "E1",
				Start: start, End: end,
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestMemoryStore_UpdatePatchesAndBumpsVersion(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	r, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: start, End: end,
	})
	require.NoError(t, err)

	emp := "E2"
	state := domain.StateReassigned
	updated, err := store.Update(ctx, r.ReservationID, domain.ReservationPatch{
		EmployeeID: &emp,
		State:      &state,
	})
	require.NoError(t, err)
	assert.Equal(t, "E2", updated.EmployeeID)
	assert.Equal(t, "EQ1", updated.EquipmentID)
	assert.Equal(t, domain.StateReassigned, updated.State)
	assert.Equal(t, 2, updated.Version)

	_, err = store.Update(ctx, "R-missing", domain.ReservationPatch{State: &state})
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestMemoryStore_ListInRange(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()

	s1, e1 := slot(9, 0, 45)
	s2, e2 := slot(14, 0, 45)
	_, err := store.Add(ctx, domain.NewReservation{ServiceID: "SVC1", EmployeeID: "E1", Start: s1, End: e1})
	require.NoError(t, err)
	_, err = store.Add(ctx, domain.NewReservation{ServiceID: "SVC1", EmployeeID: "E1", Start: s2, End: e2})
	require.NoError(t, err)

	got, err := store.ListInRange(ctx, s1, s1.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, s1, got[0].Start)
}

func TestMemoryStore_BlockingFilter(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 120)

	_, err := store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope: domain.ScopeEmployee, EmployeeIDs: []string{"E1"},
		Start: start, End: end,
	})
	require.NoError(t, err)
	_, err = store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope: domain.ScopeBusiness,
		Start: start, End: end,
	})
	require.NoError(t, err)

	all, err := store.ListBlockingsIntersecting(ctx, start, end, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := store.ListBlockingsIntersecting(ctx, start, end, &domain.BlockingFilter{
		EmployeeIDs: []string{"E2"},
	})
	require.NoError(t, err)
	// The employee blocking targets someone else; the business blocking
	// always matches.
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.ScopeBusiness, filtered[0].Scope)

	none, err := store.ListBlockingsIntersecting(ctx, end.Add(time.Hour), end.Add(2*time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_Reset(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	_, err := store.Add(ctx, domain.NewReservation{ServiceID: "SVC1", EmployeeID: "E1", Start: start, End: end})
	require.NoError(t, err)
	_, err = store.AddBlocking(ctx, domain.OperationalBlocking{Scope: domain.ScopeBusiness, Start: start, End: end})
	require.NoError(t, err)

	store.Reset()

	all, err := store.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	blockings, err := store.ListBlockingsIntersecting(ctx, start, end, nil)
	require.NoError(t, err)
	assert.Empty(t, blockings)
}
