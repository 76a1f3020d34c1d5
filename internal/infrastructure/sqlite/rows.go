package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
)

const slotColumns = `id, owner_id, start_at, end_at, booked, created_at, updated_at`

const reservationColumns = `id, slot_id, owner_id, requester_id, kind, session_token, status, created_at, updated_at`

// Instants are stored as unix microseconds, matching timestamptz precision.
func toDB(t time.Time) int64 { return t.UnixMicro() }

func fromDB(v int64) time.Time { return time.UnixMicro(v).UTC() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSlot(row scanner) (reservation.Slot, error) {
	var (
		s                   reservation.Slot
		start, end          int64
		createdAt, updateAt int64
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &start, &end, &s.Booked, &createdAt, &updateAt); err != nil {
		return reservation.Slot{}, err
	}
	s.Start, s.End = fromDB(start), fromDB(end)
	s.CreatedAt, s.UpdatedAt = fromDB(createdAt), fromDB(updateAt)
	return s, nil
}

func slotByID(ctx context.Context, q querier, id string) (reservation.Slot, error) {
	s, err := scanSlot(q.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id=?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reservation.Slot{}, internaltypes.ErrNotFound
		}
		return reservation.Slot{}, fmt.Errorf("slot %s: %w", id, err)
	}
	return s, nil
}

func querySlots(ctx context.Context, q querier, query string, args ...any) ([]reservation.Slot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var out []reservation.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanReservation(row scanner) (reservation.Reservation, error) {
	var (
		r                   reservation.Reservation
		kind, status        string
		token               sql.NullString
		createdAt, updateAt int64
	)
	if err := row.Scan(&r.ID, &r.SlotID, &r.OwnerID, &r.RequesterID, &kind, &token, &status, &createdAt, &updateAt); err != nil {
		return reservation.Reservation{}, err
	}
	r.Kind = reservation.Kind(kind)
	r.Status = reservation.Status(status)
	r.SessionToken = token.String
	r.CreatedAt, r.UpdatedAt = fromDB(createdAt), fromDB(updateAt)
	return r, nil
}

func reservationByID(ctx context.Context, q querier, id string) (reservation.Reservation, error) {
	r, err := scanReservation(q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reservation.Reservation{}, internaltypes.ErrNotFound
		}
		return reservation.Reservation{}, fmt.Errorf("reservation %s: %w", id, err)
	}
	return r, nil
}

func queryReservations(ctx context.Context, q querier, query string, args ...any) ([]reservation.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []reservation.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func participantByID(ctx context.Context, q querier, id string) (user.User, error) {
	var (
		u         user.User
		role      string
		createdAt int64
	)
	err := q.QueryRowContext(ctx, `SELECT id, role, display_name, active, created_at FROM participants WHERE id=?`, id).
		Scan(&u.ID, &role, &u.DisplayName, &u.Active, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, internaltypes.ErrNotFound
		}
		return user.User{}, fmt.Errorf("participant %s: %w", id, err)
	}
	u.Role = user.Role(role)
	u.CreatedAt = fromDB(createdAt)
	return u, nil
}
