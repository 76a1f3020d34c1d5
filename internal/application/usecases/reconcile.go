package usecases

import (
	"context"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"go.uber.org/zap"
)

type ReconcileReport struct {
	Inconsistencies []reservation.Inconsistency `json:"inconsistencies"`
	Released        []string                    `json:"released"`
}

// Reconcile finds slots whose booked flag disagrees with their reservations.
// With Fix it re-applies owed releases; each release re-checks under the
// slot lock, so running it repeatedly is harmless.
type Reconcile struct {
	Deps
	Fix bool
}

func (u Reconcile) Execute(ctx context.Context) (ReconcileReport, error) {
	found, err := u.Store.Inconsistencies(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	report := ReconcileReport{Inconsistencies: found}
	if !u.Fix {
		return report, nil
	}

	for _, inc := range found {
		if !inc.ReleaseOwed() {
			u.log().Warn("slot free with a confirmed reservation",
				zap.String("slot_id", inc.Slot.ID),
				zap.Int("confirmed", inc.Confirmed),
			)
			continue
		}
		var released bool
		err := u.Store.InTx(ctx, reservation.TxOptions{}, func(tx reservation.Tx) error {
			slot, err := tx.LockSlot(ctx, inc.Slot.ID)
			if err != nil {
				return err
			}
			n, err := tx.CountConfirmed(ctx, slot.ID)
			if err != nil {
				return err
			}
			if !slot.Booked || n > 0 {
				return nil
			}
			released, err = tx.SetSlotBooked(ctx, slot.ID, false, u.now())
			return err
		})
		if err != nil {
			return report, err
		}
		if released {
			report.Released = append(report.Released, inc.Slot.ID)
			u.log().Info("released orphaned slot", zap.String("slot_id", inc.Slot.ID))
		}
	}
	return report, nil
}
