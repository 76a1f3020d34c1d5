// Package sqlite implements the reservation store on an embedded SQLite
// database. A single connection serialises every transaction, so the
// booked compare-and-swap is the concurrency guard here rather than row locks.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

type Store struct {
	db *sql.DB
	// bounds the wait for the single connection
	lockTimeout time.Duration
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", cfg.Path, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; every transaction runs alone
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	s := &Store{db: db, lockTimeout: busy}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx ignores opts: SQLite transactions are always serializable. Waiting
// for the connection is bounded by the lock timeout and reported as ErrBusy.
func (s *Store) InTx(ctx context.Context, _ reservation.TxOptions, fn func(tx reservation.Tx) error) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&txStore{q: tx}); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

func (s *Store) acquire(ctx context.Context) (*sql.Conn, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	conn, err := s.db.Conn(waitCtx)
	if err != nil {
		return nil, classify(fmt.Errorf("acquire connection: %w", err))
	}
	return conn, nil
}

func (s *Store) SlotsByOwner(ctx context.Context, ownerID string) ([]reservation.Slot, error) {
	return querySlots(ctx, s.db, `SELECT `+slotColumns+` FROM slots WHERE owner_id=? ORDER BY start_at`, ownerID)
}

func (s *Store) SlotsByID(ctx context.Context, ids []string) (map[string]reservation.Slot, error) {
	out := make(map[string]reservation.Slot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + slotColumns + ` FROM slots WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	slots, err := querySlots(ctx, s.db, q, args...)
	if err != nil {
		return nil, err
	}
	for _, sl := range slots {
		out[sl.ID] = sl
	}
	return out, nil
}

func (s *Store) SearchSlots(ctx context.Context, f reservation.SlotFilter) ([]reservation.Slot, error) {
	q := `SELECT ` + slotColumns + ` FROM slots WHERE 1=1`
	var args []any
	if f.OwnerID != "" {
		q += ` AND owner_id=?`
		args = append(args, f.OwnerID)
	}
	if f.From != nil {
		q += ` AND start_at >= ?`
		args = append(args, toDB(*f.From))
	}
	if f.To != nil {
		q += ` AND end_at <= ?`
		args = append(args, toDB(*f.To))
	}
	if !f.IncludeBooked {
		q += ` AND booked = 0`
	}
	q += ` ORDER BY start_at, owner_id`
	return querySlots(ctx, s.db, q, args...)
}

func (s *Store) Reservation(ctx context.Context, id string) (reservation.Reservation, error) {
	return reservationByID(ctx, s.db, id)
}

func (s *Store) ReservationsByOwner(ctx context.Context, ownerID string) ([]reservation.Reservation, error) {
	return queryReservations(ctx, s.db, `SELECT `+reservationColumns+` FROM reservations WHERE owner_id=? ORDER BY created_at DESC, rowid DESC`, ownerID)
}

func (s *Store) ReservationsByRequester(ctx context.Context, requesterID string) ([]reservation.Reservation, error) {
	return queryReservations(ctx, s.db, `SELECT `+reservationColumns+` FROM reservations WHERE requester_id=? ORDER BY created_at DESC, rowid DESC`, requesterID)
}

func (s *Store) Participant(ctx context.Context, id string) (user.User, error) {
	return participantByID(ctx, s.db, id)
}

func (s *Store) PutParticipant(ctx context.Context, u user.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, role, display_name, active, created_at) VALUES (?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET role=excluded.role, display_name=excluded.display_name, active=excluded.active
	`, u.ID, string(u.Role), u.DisplayName, u.Active, toDB(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}

func (s *Store) Inconsistencies(ctx context.Context) ([]reservation.Inconsistency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.owner_id, s.start_at, s.end_at, s.booked, s.created_at, s.updated_at, COUNT(r.id)
		FROM slots s
		LEFT JOIN reservations r ON r.slot_id = s.id AND r.status = 'CONFIRMED'
		GROUP BY s.id
		HAVING (s.booked = 1 AND COUNT(r.id) <> 1) OR (s.booked = 0 AND COUNT(r.id) > 0)
		ORDER BY s.start_at
	`)
	if err != nil {
		return nil, fmt.Errorf("inconsistencies: %w", err)
	}
	defer rows.Close()

	var out []reservation.Inconsistency
	for rows.Next() {
		var (
			inc        reservation.Inconsistency
			start, end int64
			created    int64
			updated    int64
		)
		sl := &inc.Slot
		if err := rows.Scan(&sl.ID, &sl.OwnerID, &start, &end, &sl.Booked, &created, &updated, &inc.Confirmed); err != nil {
			return nil, err
		}
		sl.Start, sl.End, sl.CreatedAt, sl.UpdatedAt = fromDB(start), fromDB(end), fromDB(created), fromDB(updated)
		out = append(out, inc)
	}
	return out, rows.Err()
}

type txStore struct {
	q querier
}

func (t *txStore) CountOverlapping(ctx context.Context, ownerID string, start, end time.Time) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE owner_id=? AND start_at < ? AND end_at > ?`,
		ownerID, toDB(end), toDB(start)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overlapping: %w", err)
	}
	return n, nil
}

func (t *txStore) InsertSlots(ctx context.Context, slots []reservation.Slot) error {
	for _, s := range slots {
		_, err := t.q.ExecContext(ctx,
			`INSERT INTO slots (id, owner_id, start_at, end_at, booked, created_at, updated_at) VALUES (?,?,?,?,?,?,?)`,
			s.ID, s.OwnerID, toDB(s.Start), toDB(s.End), s.Booked, toDB(s.CreatedAt), toDB(s.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
	}
	return nil
}

// LockSlot is a plain read: the transaction already owns the only
// connection.
func (t *txStore) LockSlot(ctx context.Context, id string) (reservation.Slot, error) {
	return slotByID(ctx, t.q, id)
}

func (t *txStore) SetSlotBooked(ctx context.Context, id string, booked bool, at time.Time) (bool, error) {
	res, err := t.q.ExecContext(ctx, `UPDATE slots SET booked=?, updated_at=? WHERE id=? AND booked <> ?`, booked, toDB(at), id, booked)
	if err != nil {
		return false, fmt.Errorf("set booked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *txStore) InsertReservation(ctx context.Context, r reservation.Reservation) error {
	var token sql.NullString
	if r.SessionToken != "" {
		token = sql.NullString{String: r.SessionToken, Valid: true}
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO reservations (id, slot_id, owner_id, requester_id, kind, session_token, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, r.ID, r.SlotID, r.OwnerID, r.RequesterID, string(r.Kind), token, string(r.Status), toDB(r.CreatedAt), toDB(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (t *txStore) LockReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	return reservationByID(ctx, t.q, id)
}

func (t *txStore) SetReservationStatus(ctx context.Context, id string, status reservation.Status, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `UPDATE reservations SET status=?, updated_at=? WHERE id=?`, string(status), toDB(at), id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internaltypes.ErrNotFound
	}
	return nil
}

func (t *txStore) CountConfirmed(ctx context.Context, slotID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE slot_id=? AND status='CONFIRMED'`, slotID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

func (t *txStore) Participant(ctx context.Context, id string) (user.User, error) {
	return participantByID(ctx, t.q, id)
}

// classify maps SQLite result codes onto the error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", reservation.ErrBusy, err)
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		if strings.Contains(se.Error(), "reservations.slot_id") {
			return reservation.ErrSlotBooked
		}
		return fmt.Errorf("%w: %s", internaltypes.ErrConflict, se.Error())
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %s", reservation.ErrBusy, se.Error())
	}
	return err
}
