package reservation

import (
	"context"
	"time"

	"github.com/example/slot-scheduler/internal/domain/user"
)

type TxOptions struct {
	// Serializable asks for SERIALIZABLE isolation where the backend
	// distinguishes levels.
	Serializable bool
}

// Store is the persistence port. Reads outside a transaction see committed
// state only. Lookups that miss return an error wrapping
// internaltypes.ErrNotFound.
type Store interface {
	SlotsByOwner(ctx context.Context, ownerID string) ([]Slot, error)
	SlotsByID(ctx context.Context, ids []string) (map[string]Slot, error)
	SearchSlots(ctx context.Context, f SlotFilter) ([]Slot, error)

	Reservation(ctx context.Context, id string) (Reservation, error)
	ReservationsByOwner(ctx context.Context, ownerID string) ([]Reservation, error)
	ReservationsByRequester(ctx context.Context, requesterID string) ([]Reservation, error)

	Participant(ctx context.Context, id string) (user.User, error)
	PutParticipant(ctx context.Context, u user.User) error

	Inconsistencies(ctx context.Context) ([]Inconsistency, error)

	// InTx runs fn in one transaction, committing when fn returns nil.
	InTx(ctx context.Context, opts TxOptions, fn func(tx Tx) error) error
	Close() error
}

// Tx is the set of operations available inside Store.InTx. Implementations
// must not touch the store outside tx while fn runs.
type Tx interface {
	CountOverlapping(ctx context.Context, ownerID string, start, end time.Time) (int, error)
	InsertSlots(ctx context.Context, slots []Slot) error
	// LockSlot reads the slot and holds an exclusive row lock on it until
	// the transaction ends.
	LockSlot(ctx context.Context, id string) (Slot, error)
	// SetSlotBooked flips booked only when it differs from the target value
	// and reports whether a row changed.
	SetSlotBooked(ctx context.Context, id string, booked bool, at time.Time) (bool, error)

	InsertReservation(ctx context.Context, r Reservation) error
	LockReservation(ctx context.Context, id string) (Reservation, error)
	SetReservationStatus(ctx context.Context, id string, status Status, at time.Time) error
	CountConfirmed(ctx context.Context, slotID string) (int, error)

	Participant(ctx context.Context, id string) (user.User, error)
}
