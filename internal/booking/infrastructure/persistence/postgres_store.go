package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telensor/agenda/internal/booking/domain"
)

// bookingLockKey serializes reservation writes across processes through a
// transaction-scoped advisory lock, matching the memory store's single
// mutex semantics.
const bookingLockKey = 7421001

// PostgresStore persists reservations and blockings in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	mu   sync.Mutex
	seq  int
}

var _ domain.ReservationStore = (*PostgresStore)(nil)

// NewPostgresStore connects to the database and ensures the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reservations (
		id           TEXT PRIMARY KEY,
		service_id   TEXT NOT NULL,
		employee_id  TEXT NOT NULL,
		equipment_id TEXT NOT NULL DEFAULT '',
		start_utc    TIMESTAMPTZ NOT NULL,
		end_utc      TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		state        TEXT NOT NULL,
		version      INTEGER NOT NULL,
		scenario_id  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_range ON reservations (start_utc, end_utc);
	CREATE TABLE IF NOT EXISTS blockings (
		id            TEXT PRIMARY KEY,
		scope         TEXT NOT NULL,
		start_utc     TIMESTAMPTZ NOT NULL,
		end_utc       TIMESTAMPTZ NOT NULL,
		reason        TEXT NOT NULL,
		employee_ids  TEXT[] NOT NULL DEFAULT '{}',
		equipment_ids TEXT[] NOT NULL DEFAULT '{}',
		service_ids   TEXT[] NOT NULL DEFAULT '{}'
	);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure postgres schema: %w", err)
	}
	return nil
}

const pgReservationColumns = "id, service_id, employee_id, equipment_id, start_utc, end_utc, created_at, state, version, scenario_id"

// ListReservations returns every stored reservation.
func (s *PostgresStore) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgReservationColumns+" FROM reservations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPgReservations(rows)
}

// ListInRange returns every reservation overlapping [start, end).
func (s *PostgresStore) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Reservation, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+pgReservationColumns+" FROM reservations WHERE start_utc < $1 AND end_utc > $2 ORDER BY id",
		end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPgReservations(rows)
}

// HasConflict reports whether an overlapping reservation matches the given
// employee and, when given, the equipment.
func (s *PostgresStore) HasConflict(ctx context.Context, employeeID, equipmentID string, start, end time.Time) (bool, error) {
	return s.conflict(ctx, s.pool, employeeID, equipmentID, start, end)
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) conflict(ctx context.Context, q pgQuerier, employeeID, equipmentID string, start, end time.Time) (bool, error) {
	if employeeID == "" && equipmentID == "" {
		return false, nil
	}
	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE start_utc < $1 AND end_utc > $2
		  AND ($3 = '' OR employee_id = $3)
		  AND ($4 = '' OR equipment_id = $4)`,
		end.UTC(), start.UTC(), employeeID, equipmentID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts a reservation after re-checking both resources under the
// advisory lock.
func (s *PostgresStore) Add(ctx context.Context, nr domain.NewReservation) (*domain.Reservation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", bookingLockKey); err != nil {
		return nil, err
	}
	if conflict, err := s.conflict(ctx, tx, nr.EmployeeID, "", nr.Start, nr.End); err != nil {
		return nil, err
	} else if conflict {
		return nil, domain.ErrConflict
	}
	if nr.EquipmentID != "" {
		if conflict, err := s.conflict(ctx, tx, "", nr.EquipmentID, nr.Start, nr.End); err != nil {
			return nil, err
		} else if conflict {
			return nil, domain.ErrConflict
		}
	}

	r := domain.Reservation{
		ReservationID: s.nextID("R"),
		ServiceID:     nr.ServiceID,
		EmployeeID:    nr.EmployeeID,
		EquipmentID:   nr.EquipmentID,
		Start:         nr.Start.UTC(),
		End:           nr.End.UTC(),
		CreatedAt:     time.Now().UTC(),
		State:         domain.StateConfirmed,
		Version:       1,
		ScenarioID:    nr.ScenarioID,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (`+pgReservationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ReservationID, r.ServiceID, r.EmployeeID, r.EquipmentID,
		r.Start, r.End, r.CreatedAt, string(r.State), r.Version, r.ScenarioID,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update mutates the stored reservation and bumps its version.
func (s *PostgresStore) Update(ctx context.Context, id string, patch domain.ReservationPatch) (*domain.Reservation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", bookingLockKey); err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, "SELECT "+pgReservationColumns+" FROM reservations WHERE id = $1", id)
	r, err := scanPgReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
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

	_, err = tx.Exec(ctx, `
		UPDATE reservations SET employee_id = $1, equipment_id = $2, state = $3, version = $4
		WHERE id = $5`,
		r.EmployeeID, r.EquipmentID, string(r.State), r.Version, id,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &r, nil
}

// AddBlocking appends an operational blocking.
func (s *PostgresStore) AddBlocking(ctx context.Context, b domain.OperationalBlocking) (*domain.OperationalBlocking, error) {
	b.ID = s.nextID("B")
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blockings (id, scope, start_utc, end_utc, reason, employee_ids, equipment_ids, service_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, string(b.Scope), b.Start.UTC(), b.End.UTC(), b.Reason,
		emptyIfNil(b.EmployeeIDs), emptyIfNil(b.EquipmentIDs), emptyIfNil(b.ServiceIDs),
	)
	if err != nil {
		return nil, err
	}
	out := b
	return &out, nil
}

// ListBlockingsIntersecting returns blockings overlapping [start, end),
// optionally narrowed by resource filter.
func (s *PostgresStore) ListBlockingsIntersecting(ctx context.Context, start, end time.Time, filter *domain.BlockingFilter) ([]domain.OperationalBlocking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, scope, start_utc, end_utc, reason, employee_ids, equipment_ids, service_ids
		FROM blockings WHERE start_utc < $1 AND end_utc > $2 ORDER BY id`,
		end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OperationalBlocking
	for rows.Next() {
		var (
			b     domain.OperationalBlocking
			scope string
		)
		if err := rows.Scan(&b.ID, &scope, &b.Start, &b.End, &b.Reason,
			&b.EmployeeIDs, &b.EquipmentIDs, &b.ServiceIDs); err != nil {
			return nil, err
		}
		b.Scope = domain.BlockScope(scope)
		if filter != nil && !blockingMatches(b, filter) {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Reset drops every reservation and blocking. Test support.
func (s *PostgresStore) Reset() {
	ctx := context.Background()
	_, _ = s.pool.Exec(ctx, "DELETE FROM reservations")
	_, _ = s.pool.Exec(ctx, "DELETE FROM blockings")
}

func (s *PostgresStore) nextID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%s-%06d", prefix, time.Now().UTC().Format("20060102T150405Z"), s.seq)
}

func scanPgReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		r     domain.Reservation
		state string
	)
	err := row.Scan(&r.ReservationID, &r.ServiceID, &r.EmployeeID, &r.EquipmentID,
		&r.Start, &r.End, &r.CreatedAt, &state, &r.Version, &r.ScenarioID)
	if err != nil {
		return domain.Reservation{}, err
	}
	r.State = domain.ReservationState(state)
	return r, nil
}

func scanPgReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for rows.Next() {
		r, err := scanPgReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
