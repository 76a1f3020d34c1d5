package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"github.com/example/slot-scheduler/internal/policy"
	"go.uber.org/zap"
)

type BookRequest struct {
	SlotID string
	Kind   reservation.Kind
}

// BookSlot turns a free slot into a CONFIRMED reservation. The slot row is
// locked for the whole transaction and booked is re-checked under the lock;
// the flag flip is a compare-and-swap so a store without row locks still
// admits a single winner.
type BookSlot struct {
	Deps
}

func (u BookSlot) Execute(ctx context.Context, c user.Caller, req BookRequest) (ReservationView, error) {
	if err := u.Policy.Check(policy.ActionBook, c, policy.Resource{RequesterID: c.ID}); err != nil {
		return ReservationView{}, err
	}
	if !req.Kind.Valid() {
		return ReservationView{}, fmt.Errorf("%w: %q", reservation.ErrInvalidKind, req.Kind)
	}
	if strings.TrimSpace(req.SlotID) == "" {
		return ReservationView{}, fmt.Errorf("%w: slot id is required", internaltypes.ErrValidation)
	}

	var view ReservationView
	err := u.Store.InTx(ctx, reservation.TxOptions{}, func(tx reservation.Tx) error {
		slot, err := tx.LockSlot(ctx, req.SlotID)
		if errors.Is(err, internaltypes.ErrNotFound) {
			return fmt.Errorf("%w: %s", reservation.ErrSlotNotFound, req.SlotID)
		}
		if err != nil {
			return err
		}
		if slot.Booked {
			return reservation.ErrSlotBooked
		}

		provider, err := tx.Participant(ctx, slot.OwnerID)
		if errors.Is(err, internaltypes.ErrNotFound) || (err == nil && !provider.Bookable()) {
			return fmt.Errorf("%w: %s", reservation.ErrProviderNotFound, slot.OwnerID)
		}
		if err != nil {
			return err
		}

		now := u.now()
		r := reservation.Reservation{
			ID:          u.newID(),
			SlotID:      slot.ID,
			OwnerID:     slot.OwnerID,
			RequesterID: c.ID,
			Kind:        req.Kind,
			Status:      reservation.StatusConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.Kind == reservation.KindRemote {
			r.SessionToken = u.newToken()
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		swapped, err := tx.SetSlotBooked(ctx, slot.ID, true, now)
		if err != nil {
			return err
		}
		if !swapped {
			return reservation.ErrSlotBooked
		}
		slot.Booked = true
		slot.UpdatedAt = now

		requester, err := resolveTx(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		view = ReservationView{Reservation: r, Slot: slot, Provider: provider, Requester: requester}
		return nil
	})
	if err != nil {
		u.logFailure("book slot", err, zap.String("slot_id", req.SlotID), zap.String("requester_id", c.ID))
		return ReservationView{}, err
	}

	u.log().Info("reservation confirmed",
		zap.String("reservation_id", view.ID),
		zap.String("slot_id", view.SlotID),
		zap.String("owner_id", view.OwnerID),
		zap.String("requester_id", view.RequesterID),
		zap.String("kind", string(view.Kind)),
	)
	u.publish(ctx, reservation.EventConfirmed, view.Reservation, view.Slot)
	return view, nil
}
