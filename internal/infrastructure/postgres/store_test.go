package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/example/slot-scheduler/internal/db"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"github.com/example/slot-scheduler/internal/migrate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"live slot index", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: liveSlotIndex}, reservation.ErrSlotBooked},
		{"other unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "slots_pkey"}, internaltypes.ErrConflict},
		{"serialization", &pgconn.PgError{Code: codeSerializationFailure}, reservation.ErrBusy},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, reservation.ErrBusy},
		{"lock timeout", fmt.Errorf("lock slot: %w", &pgconn.PgError{Code: codeLockNotAvailable}), reservation.ErrBusy},
		{"domain error", reservation.ErrOverlap, reservation.ErrOverlap},
		{"deadline before lock_timeout", fmt.Errorf("lock slot: %w", context.DeadlineExceeded), reservation.ErrBusy},
	}
	for _, tt := range tests {
		if got := classify(tt.err); !errors.Is(got, tt.want) {
			t.Fatalf("%s: classify = %v, want %v", tt.name, got, tt.want)
		}
	}
	if classify(nil) != nil {
		t.Fatalf("classify(nil) must be nil")
	}
	if got := classify(&pgconn.PgError{Code: "42P01"}); internaltypes.Class(got) != "internal" {
		t.Fatalf("unknown codes must stay internal, got %s", internaltypes.Class(got))
	}
}

// openTestStore connects to SLOTSCHED_TEST_DATABASE_URL and applies the
// migrations. Tests use fresh ids so they can share one database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SLOTSCHED_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SLOTSCHED_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	d, err := db.Open(ctx, url)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(d.Close)
	if _, err := migrate.Up(ctx, d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(d, 2*time.Second)
}

func TestStoreBookingGuards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	owner := "p-" + uuid.NewString()
	start := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	slot := reservation.Slot{ID: uuid.NewString(), OwnerID: owner, Start: start, End: start.Add(time.Hour), CreatedAt: start, UpdatedAt: start}

	if err := s.PutParticipant(ctx, user.User{ID: owner, Role: user.RoleProvider, Active: true, CreatedAt: start}); err != nil {
		t.Fatalf("PutParticipant: %v", err)
	}
	err := s.InTx(ctx, reservation.TxOptions{Serializable: true}, func(tx reservation.Tx) error {
		return tx.InsertSlots(ctx, []reservation.Slot{slot})
	})
	if err != nil {
		t.Fatalf("insert slot: %v", err)
	}

	got, err := s.SlotsByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("SlotsByOwner: %v", err)
	}
	if len(got) != 1 || !got[0].Start.Equal(start) || got[0].Start.Location() != time.UTC {
		t.Fatalf("unexpected slots %+v", got)
	}

	// concurrent bookers: the row lock plus compare-and-swap admit one
	const n = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.InTx(ctx, reservation.TxOptions{}, func(tx reservation.Tx) error {
				sl, err := tx.LockSlot(ctx, slot.ID)
				if err != nil {
					return err
				}
				if sl.Booked {
					return reservation.ErrSlotBooked
				}
				r := reservation.Reservation{
					ID: uuid.NewString(), SlotID: slot.ID, OwnerID: owner, RequesterID: fmt.Sprintf("c-%d", i),
					Kind: reservation.KindInPerson, Status: reservation.StatusConfirmed, CreatedAt: start, UpdatedAt: start,
				}
				if err := tx.InsertReservation(ctx, r); err != nil {
					return err
				}
				ok, err := tx.SetSlotBooked(ctx, slot.ID, true, start)
				if err != nil {
					return err
				}
				if !ok {
					return reservation.ErrSlotBooked
				}
				return nil
			})
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
				return
			}
			if !errors.Is(err, internaltypes.ErrConflict) {
				t.Errorf("booker %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("expected exactly one booking, got %d", won)
	}

	list, err := s.ReservationsByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ReservationsByOwner: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one reservation, got %d", len(list))
	}
	if _, err := s.Reservation(ctx, uuid.NewString()); !errors.Is(err, internaltypes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Two serializable declarations that both see an empty range before either
// inserts: only one may commit.
func TestStoreOverlappingDeclarations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	owner := "p-" + uuid.NewString()
	start := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	var (
		counted sync.WaitGroup
		wg      sync.WaitGroup
	)
	counted.Add(2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.InTx(ctx, reservation.TxOptions{Serializable: true}, func(tx reservation.Tx) error {
				n, err := tx.CountOverlapping(ctx, owner, start, start.Add(2*time.Hour))
				counted.Done()
				counted.Wait()
				if err != nil {
					return err
				}
				if n > 0 {
					return reservation.ErrOverlap
				}
				// second declaration shifted by an hour so only the range overlaps
				at := start.Add(time.Duration(i) * time.Hour)
				return tx.InsertSlots(ctx, []reservation.Slot{
					{ID: uuid.NewString(), OwnerID: owner, Start: at, End: at.Add(time.Hour), CreatedAt: start, UpdatedAt: start},
				})
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for i, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, internaltypes.ErrConflict):
		default:
			t.Fatalf("declaration %d: unexpected error %v", i, err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one declaration to commit, got %d (%v)", ok, errs)
	}
	got, err := s.SlotsByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("SlotsByOwner: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the winner's slot only, got %d", len(got))
	}
}
