package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"github.com/example/slot-scheduler/internal/policy"
	"go.uber.org/zap"
)

// CancelReservation moves a reservation to CANCELLED and releases its slot in
// the same transaction. Cancelling twice returns the stored reservation
// without writing, so a stale cancel never frees a slot somebody re-booked.
type CancelReservation struct {
	Deps
}

func (u CancelReservation) Execute(ctx context.Context, c user.Caller, reservationID string) (ReservationView, error) {
	current, err := u.Store.Reservation(ctx, reservationID)
	if errors.Is(err, internaltypes.ErrNotFound) {
		return ReservationView{}, fmt.Errorf("%w: %s", reservation.ErrReservationNotFound, reservationID)
	}
	if err != nil {
		return ReservationView{}, err
	}
	// parties are immutable, so checking before the transaction is safe
	res := policy.Resource{OwnerID: current.OwnerID, RequesterID: current.RequesterID}
	if err := u.Policy.Check(policy.ActionCancel, c, res); err != nil {
		return ReservationView{}, err
	}

	var (
		view    ReservationView
		changed bool
	)
	err = u.Store.InTx(ctx, reservation.TxOptions{}, func(tx reservation.Tx) error {
		// slot before reservation, the same order booking takes
		slot, err := tx.LockSlot(ctx, current.SlotID)
		if err != nil {
			return err
		}
		r, err := tx.LockReservation(ctx, reservationID)
		if errors.Is(err, internaltypes.ErrNotFound) {
			return fmt.Errorf("%w: %s", reservation.ErrReservationNotFound, reservationID)
		}
		if err != nil {
			return err
		}

		if !r.Cancelled() {
			now := u.now()
			if err := tx.SetReservationStatus(ctx, r.ID, reservation.StatusCancelled, now); err != nil {
				return err
			}
			r.Status = reservation.StatusCancelled
			r.UpdatedAt = now

			released, err := tx.SetSlotBooked(ctx, slot.ID, false, now)
			if err != nil {
				return err
			}
			if released {
				slot.Booked = false
				slot.UpdatedAt = now
			}
			changed = true
		}

		provider, err := resolveTx(ctx, tx, r.OwnerID)
		if err != nil {
			return err
		}
		requester, err := resolveTx(ctx, tx, r.RequesterID)
		if err != nil {
			return err
		}
		view = ReservationView{Reservation: r, Slot: slot, Provider: provider, Requester: requester}
		return nil
	})
	if err != nil {
		u.logFailure("cancel reservation", err, zap.String("reservation_id", reservationID), zap.String("caller_id", c.ID))
		return ReservationView{}, err
	}

	if !changed {
		u.log().Debug("reservation already cancelled", zap.String("reservation_id", reservationID))
		return view, nil
	}
	u.log().Info("reservation cancelled",
		zap.String("reservation_id", view.ID),
		zap.String("slot_id", view.SlotID),
		zap.String("caller_id", c.ID),
		zap.String("caller_role", string(c.Role)),
	)
	u.publish(ctx, reservation.EventCancelled, view.Reservation, view.Slot)
	return view, nil
}
