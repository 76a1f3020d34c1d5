package postgres

import (
	"context"
	"fmt"

	"github.com/example/slot-scheduler/internal/db"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"github.com/jackc/pgx/v5"
)

const slotColumns = `id, owner_id, start_at, end_at, booked, created_at, updated_at`

const reservationColumns = `id, slot_id, owner_id, requester_id, kind, session_token, status, created_at, updated_at`

func scanSlot(row db.Row) (reservation.Slot, error) {
	var s reservation.Slot
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Start, &s.End, &s.Booked, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return reservation.Slot{}, err
	}
	normalizeSlot(&s)
	return s, nil
}

func normalizeSlot(s *reservation.Slot) {
	s.Start = s.Start.UTC()
	s.End = s.End.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
}

func slotByID(ctx context.Context, q db.Querier, id string, forUpdate bool) (reservation.Slot, error) {
	sql := `SELECT ` + slotColumns + ` FROM slots WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	s, err := scanSlot(q.QueryRow(ctx, sql, id))
	if err != nil {
		if db.IsNotFound(err) {
			return reservation.Slot{}, internaltypes.ErrNotFound
		}
		return reservation.Slot{}, fmt.Errorf("slot %s: %w", id, err)
	}
	return s, nil
}

func querySlots(ctx context.Context, q db.Querier, sql string, args ...any) ([]reservation.Slot, error) {
	rows, err := q.Query(ctx, sql, args...)
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

func insertSlots(ctx context.Context, tx pgx.Tx, slots []reservation.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, s := range slots {
		b.Queue(`INSERT INTO slots (id, owner_id, start_at, end_at, booked, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.OwnerID, s.Start, s.End, s.Booked, s.CreatedAt, s.UpdatedAt)
	}
	br := tx.SendBatch(ctx, b)
	for range slots {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert slots: %w", err)
		}
	}
	return br.Close()
}

func scanReservation(row db.Row) (reservation.Reservation, error) {
	var (
		r      reservation.Reservation
		kind   string
		status string
		token  *string
	)
	if err := row.Scan(&r.ID, &r.SlotID, &r.OwnerID, &r.RequesterID, &kind, &token, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return reservation.Reservation{}, err
	}
	r.Kind = reservation.Kind(kind)
	r.Status = reservation.Status(status)
	if token != nil {
		r.SessionToken = *token
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func reservationByID(ctx context.Context, q db.Querier, id string, forUpdate bool) (reservation.Reservation, error) {
	sql := `SELECT ` + reservationColumns + ` FROM reservations WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	r, err := scanReservation(q.QueryRow(ctx, sql, id))
	if err != nil {
		if db.IsNotFound(err) {
			return reservation.Reservation{}, internaltypes.ErrNotFound
		}
		return reservation.Reservation{}, fmt.Errorf("reservation %s: %w", id, err)
	}
	return r, nil
}

func queryReservations(ctx context.Context, q db.Querier, sql string, args ...any) ([]reservation.Reservation, error) {
	rows, err := q.Query(ctx, sql, args...)
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

func insertReservation(ctx context.Context, q db.Querier, r reservation.Reservation) error {
	var token *string
	if r.SessionToken != "" {
		token = &r.SessionToken
	}
	_, err := q.Exec(ctx, `
		INSERT INTO reservations (id, slot_id, owner_id, requester_id, kind, session_token, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, r.ID, r.SlotID, r.OwnerID, r.RequesterID, string(r.Kind), token, string(r.Status), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}
