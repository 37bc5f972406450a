package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/telensor/agenda/internal/booking/domain"
)

// SQLiteStore persists reservations and blockings in SQLite. Writes are
// serialized through one mutex on top of a transaction, mirroring the
// memory store's critical section: conflict re-check, then insert.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	seq int
}

var _ domain.ReservationStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite supports one writer at a time.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reservations (
		id           TEXT PRIMARY KEY,
		service_id   TEXT NOT NULL,
		employee_id  TEXT NOT NULL,
		equipment_id TEXT NOT NULL DEFAULT '',
		start_utc    TEXT NOT NULL,
		end_utc      TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		state        TEXT NOT NULL,
		version      INTEGER NOT NULL,
		scenario_id  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_range ON reservations (start_utc, end_utc);
	CREATE TABLE IF NOT EXISTS blockings (
		id            TEXT PRIMARY KEY,
		scope         TEXT NOT NULL,
		start_utc     TEXT NOT NULL,
		end_utc       TEXT NOT NULL,
		reason        TEXT NOT NULL,
		employee_ids  TEXT NOT NULL DEFAULT '[]',
		equipment_ids TEXT NOT NULL DEFAULT '[]',
		service_ids   TEXT NOT NULL DEFAULT '[]'
	);`
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}

const reservationColumns = "id, service_id, employee_id, equipment_id, start_utc, end_utc, created_at, state, version, scenario_id"

// ListReservations returns every stored reservation.
func (s *SQLiteStore) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+reservationColumns+" FROM reservations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ListInRange returns every reservation overlapping [start, end).
func (s *SQLiteStore) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Reservation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE start_utc < ? AND end_utc > ? ORDER BY id",
		end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

// HasConflict reports whether an overlapping reservation matches the given
// employee and, when given, the equipment.
func (s *SQLiteStore) HasConflict(ctx context.Context, employeeID, equipmentID string, start, end time.Time) (bool, error) {
	return s.conflict(ctx, s.db, employeeID, equipmentID, start, end)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) conflict(ctx context.Context, q querier, employeeID, equipmentID string, start, end time.Time) (bool, error) {
	if employeeID == "" && equipmentID == "" {
		return false, nil
	}
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE start_utc < ? AND end_utc > ?
		  AND (? = '' OR employee_id = ?)
		  AND (? = '' OR equipment_id = ?)`,
		end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339),
		employeeID, employeeID,
		equipmentID, equipmentID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts a reservation after re-checking both resources inside the
// write transaction.
func (s *SQLiteStore) Add(ctx context.Context, nr domain.NewReservation) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

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

	s.seq++
	r := domain.Reservation{
		ReservationID: fmt.Sprintf("R-%s-%06d", time.Now().UTC().Format("20060102T150405Z"), s.seq),
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
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReservationID, r.ServiceID, r.EmployeeID, r.EquipmentID,
		r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339),
		r.CreatedAt.Format(time.RFC3339), string(r.State), r.Version, r.ScenarioID,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update mutates the stored reservation and bumps its version.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch domain.ReservationPatch) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	r, err := scanReservation(row)
	if err != nil {
		if err == sql.ErrNoRows {
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

	_, err = tx.ExecContext(ctx, `
		UPDATE reservations SET employee_id = ?, equipment_id = ?, state = ?, version = ?
		WHERE id = ?`,
		r.EmployeeID, r.EquipmentID, string(r.State), r.Version, id,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &r, nil
}

// AddBlocking appends an operational blocking.
func (s *SQLiteStore) AddBlocking(ctx context.Context, b domain.OperationalBlocking) (*domain.OperationalBlocking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	b.ID = fmt.Sprintf("B-%s-%06d", time.Now().UTC().Format("20060102T150405Z"), s.seq)
	employees, _ := json.Marshal(emptyIfNil(b.EmployeeIDs))
	equipment, _ := json.Marshal(emptyIfNil(b.EquipmentIDs))
	services, _ := json.Marshal(emptyIfNil(b.ServiceIDs))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blockings (id, scope, start_utc, end_utc, reason, employee_ids, equipment_ids, service_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, string(b.Scope),
		b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339),
		b.Reason, string(employees), string(equipment), string(services),
	)
	if err != nil {
		return nil, err
	}
	out := b
	return &out, nil
}

// ListBlockingsIntersecting returns blockings overlapping [start, end),
// optionally narrowed by resource filter.
func (s *SQLiteStore) ListBlockingsIntersecting(ctx context.Context, start, end time.Time, filter *domain.BlockingFilter) ([]domain.OperationalBlocking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, start_utc, end_utc, reason, employee_ids, equipment_ids, service_ids
		FROM blockings WHERE start_utc < ? AND end_utc > ? ORDER BY id`,
		end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OperationalBlocking
	for rows.Next() {
		var (
			b                                 domain.OperationalBlocking
			scope, startRaw, endRaw           string
			employeeRaw, equipRaw, serviceRaw string
		)
		if err := rows.Scan(&b.ID, &scope, &startRaw, &endRaw, &b.Reason, &employeeRaw, &equipRaw, &serviceRaw); err != nil {
			return nil, err
		}
		b.Scope = domain.BlockScope(scope)
		if b.Start, err = time.Parse(time.RFC3339, startRaw); err != nil {
			return nil, err
		}
		if b.End, err = time.Parse(time.RFC3339, endRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(employeeRaw), &b.EmployeeIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(equipRaw), &b.EquipmentIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(serviceRaw), &b.ServiceIDs); err != nil {
			return nil, err
		}
		if filter != nil && !blockingMatches(b, filter) {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Reset drops every reservation and blocking. Test support.
func (s *SQLiteStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.db.Exec("DELETE FROM reservations")
	_, _ = s.db.Exec("DELETE FROM blockings")
	s.seq = 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var (
		r                            domain.Reservation
		startRaw, endRaw, createdRaw string
		state                        string
	)
	err := row.Scan(&r.ReservationID, &r.ServiceID, &r.EmployeeID, &r.EquipmentID,
		&startRaw, &endRaw, &createdRaw, &state, &r.Version, &r.ScenarioID)
	if err != nil {
		return domain.Reservation{}, err
	}
	r.State = domain.ReservationState(state)
	if r.Start, err = time.Parse(time.RFC3339, startRaw); err != nil {
		return domain.Reservation{}, err
	}
	if r.End, err = time.Parse(time.RFC3339, endRaw); err != nil {
		return domain.Reservation{}, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdRaw); err != nil {
		return domain.Reservation{}, err
	}
	return r, nil
}

func scanReservations(rows *sql.Rows) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
