package persistence_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/internal/booking/infrastructure/persistence"
)

func setupSQLiteStore(t *testing.T) *persistence.SQLiteStore {
	t.Helper()
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "agenda.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AddAndList(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	r, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: start, End: end, ScenarioID: "s1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ReservationID)
	assert.Equal(t, domain.StateConfirmed, r.State)

	all, err := store.ListReservations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, r.ReservationID, all[0].ReservationID)
	assert.True(t, all[0].Start.Equal(start))
	assert.True(t, all[0].End.Equal(end))
	assert.Equal(t, "s1", all[0].ScenarioID)
}

func TestSQLiteStore_ConflictSemantics(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	_, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1", EquipmentID: "EQ1",
		Start: start, End: end,
	})
	require.NoError(t, err)

	conflict, err := store.HasConflict(ctx, "E1", "", start, end)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = store.HasConflict(ctx, "E2", "EQ1", start, end)
	require.NoError(t, err)
	assert.False(t, conflict)

	_, err = store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E2", EquipmentID: "EQ1",
		Start: start, End: end,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSQLiteStore_Update(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	r, err := store.Add(ctx, domain.NewReservation{
		ServiceID: "SVC1", EmployeeID: "E1",
		Start: start, End: end,
	})
	require.NoError(t, err)

	state := domain.StatePendingReschedule
	updated, err := store.Update(ctx, r.ReservationID, domain.ReservationPatch{State: &state})
	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingReschedule, updated.State)
	assert.Equal(t, 2, updated.Version)

	_, err = store.Update(ctx, "R-missing", domain.ReservationPatch{State: &state})
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestSQLiteStore_BlockingRoundTrip(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	start, end := slot(8, 0, 240)

	b, err := store.AddBlocking(ctx, domain.OperationalBlocking{
		Scope:       domain.ScopeEmployee,
		Start:       start,
		End:         end,
		Reason:      "training",
		EmployeeIDs: []string{"E1", "E2"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)

	got, err := store.ListBlockingsIntersecting(ctx, start.Add(time.Hour), start.Add(2*time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, domain.ScopeEmployee, got[0].Scope)
	assert.Equal(t, []string{"E1", "E2"}, got[0].EmployeeIDs)
	assert.Equal(t, "training", got[0].Reason)

	filtered, err := store.ListBlockingsIntersecting(ctx, start, end, &domain.BlockingFilter{
		EmployeeIDs: []string{"E3"},
	})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestSQLiteStore_Reset(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	start, end := slot(9, 0, 45)

	_, err := store.Add(ctx, domain.NewReservation{ServiceID: "SVC1", EmployeeID: "E1", Start: start, End: end})
	require.NoError(t, err)

	store.Reset()

	all, err := store.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
