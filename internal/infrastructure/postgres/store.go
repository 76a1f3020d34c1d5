package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/slot-scheduler/internal/db"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store implements reservation.Store on Postgres. Slot rows are locked with
// SELECT ... FOR UPDATE inside booking and cancellation transactions.
type Store struct {
	db          *db.DB
	lockTimeout time.Duration
}

func NewStore(d *db.DB, lockTimeout time.Duration) *Store {
	return &Store{db: d, lockTimeout: lockTimeout}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) InTx(ctx context.Context, opts reservation.TxOptions, fn func(tx reservation.Tx) error) error {
	txo := pgx.TxOptions{}
	if opts.Serializable {
		txo.IsoLevel = pgx.Serializable
	}
	err := s.db.InTx(ctx, txo, func(tx pgx.Tx) error {
		if s.lockTimeout > 0 {
			// SET does not take bind parameters
			if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())); err != nil {
				return err
			}
		}
		return fn(&txStore{tx: tx})
	})
	return classify(err)
}

func (s *Store) SlotsByOwner(ctx context.Context, ownerID string) ([]reservation.Slot, error) {
	return querySlots(ctx, s.db.Pool(), `SELECT `+slotColumns+` FROM slots WHERE owner_id=$1 ORDER BY start_at`, ownerID)
}

func (s *Store) SlotsByID(ctx context.Context, ids []string) (map[string]reservation.Slot, error) {
	out := make(map[string]reservation.Slot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	slots, err := querySlots(ctx, s.db.Pool(), `SELECT `+slotColumns+` FROM slots WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, sl := range slots {
		out[sl.ID] = sl
	}
	return out, nil
}

func (s *Store) SearchSlots(ctx context.Context, f reservation.SlotFilter) ([]reservation.Slot, error) {
	q := `SELECT ` + slotColumns + ` FROM slots WHERE TRUE`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.OwnerID != "" {
		q += ` AND owner_id=` + arg(f.OwnerID)
	}
	if f.From != nil {
		q += ` AND start_at >= ` + arg(*f.From)
	}
	if f.To != nil {
		q += ` AND end_at <= ` + arg(*f.To)
	}
	if !f.IncludeBooked {
		q += ` AND booked = FALSE`
	}
	q += ` ORDER BY start_at, owner_id`
	return querySlots(ctx, s.db.Pool(), q, args...)
}

func (s *Store) Reservation(ctx context.Context, id string) (reservation.Reservation, error) {
	return reservationByID(ctx, s.db.Pool(), id, false)
}

func (s *Store) ReservationsByOwner(ctx context.Context, ownerID string) ([]reservation.Reservation, error) {
	return queryReservations(ctx, s.db.Pool(), `SELECT `+reservationColumns+` FROM reservations WHERE owner_id=$1 ORDER BY created_at DESC, id`, ownerID)
}

func (s *Store) ReservationsByRequester(ctx context.Context, requesterID string) ([]reservation.Reservation, error) {
	return queryReservations(ctx, s.db.Pool(), `SELECT `+reservationColumns+` FROM reservations WHERE requester_id=$1 ORDER BY created_at DESC, id`, requesterID)
}

func (s *Store) Participant(ctx context.Context, id string) (user.User, error) {
	return participantByID(ctx, s.db.Pool(), id)
}

func (s *Store) PutParticipant(ctx context.Context, u user.User) error {
	return upsertParticipant(ctx, s.db.Pool(), u)
}

func (s *Store) Inconsistencies(ctx context.Context) ([]reservation.Inconsistency, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.owner_id, s.start_at, s.end_at, s.booked, s.created_at, s.updated_at, COUNT(r.id)
		FROM slots s
		LEFT JOIN reservations r ON r.slot_id = s.id AND r.status = 'CONFIRMED'
		GROUP BY s.id
		HAVING (s.booked AND COUNT(r.id) <> 1) OR (NOT s.booked AND COUNT(r.id) > 0)
		ORDER BY s.start_at
	`)
	if err != nil {
		return nil, fmt.Errorf("inconsistencies: %w", err)
	}
	defer rows.Close()

	var out []reservation.Inconsistency
	for rows.Next() {
		var inc reservation.Inconsistency
		sl := &inc.Slot
		if err := rows.Scan(&sl.ID, &sl.OwnerID, &sl.Start, &sl.End, &sl.Booked, &sl.CreatedAt, &sl.UpdatedAt, &inc.Confirmed); err != nil {
			return nil, err
		}
		normalizeSlot(sl)
		out = append(out, inc)
	}
	return out, rows.Err()
}

// txStore is the reservation.Tx view of one pgx transaction.
type txStore struct {
	tx pgx.Tx
}

func (t *txStore) CountOverlapping(ctx context.Context, ownerID string, start, end time.Time) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM slots WHERE owner_id=$1 AND start_at < $3 AND end_at > $2`, ownerID, start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overlapping: %w", err)
	}
	return n, nil
}

func (t *txStore) InsertSlots(ctx context.Context, slots []reservation.Slot) error {
	return insertSlots(ctx, t.tx, slots)
}

func (t *txStore) LockSlot(ctx context.Context, id string) (reservation.Slot, error) {
	return slotByID(ctx, t.tx, id, true)
}

func (t *txStore) SetSlotBooked(ctx context.Context, id string, booked bool, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE slots SET booked=$2, updated_at=$3 WHERE id=$1 AND booked <> $2`, id, booked, at)
	if err != nil {
		return false, fmt.Errorf("set booked: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txStore) InsertReservation(ctx context.Context, r reservation.Reservation) error {
	return insertReservation(ctx, t.tx, r)
}

func (t *txStore) LockReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	return reservationByID(ctx, t.tx, id, true)
}

func (t *txStore) SetReservationStatus(ctx context.Context, id string, status reservation.Status, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE reservations SET status=$2, updated_at=$3 WHERE id=$1`, id, string(status), at)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return internaltypes.ErrNotFound
	}
	return nil
}

func (t *txStore) CountConfirmed(ctx context.Context, slotID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE slot_id=$1 AND status='CONFIRMED'`, slotID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

func (t *txStore) Participant(ctx context.Context, id string) (user.User, error) {
	return participantByID(ctx, t.tx, id)
}

// Postgres error codes the engine reacts to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"

	liveSlotIndex = "uq_reservations_live_slot"
)

// classify maps driver failures onto the error taxonomy. Errors that are
// already domain errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	// a deadline that fires before lock_timeout is still a lock wait
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", reservation.ErrBusy, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == liveSlotIndex {
			return reservation.ErrSlotBooked
		}
		return fmt.Errorf("%w: %s", internaltypes.ErrConflict, pgErr.ConstraintName)
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%w (%s)", reservation.ErrBusy, pgErr.Code)
	}
	return err
}
