package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/policy"
	"go.uber.org/zap"
)

type DeclareRequest struct {
	Day   string
	Start string
	End   string
}

// DeclareAvailability publishes a range of the caller's time as slots. The
// overlap check and the insert commit together, so two overlapping
// declarations racing each other cannot both succeed.
type DeclareAvailability struct {
	Deps
	Slots reservation.Decomposer
}

func (u DeclareAvailability) Execute(ctx context.Context, c user.Caller, req DeclareRequest) ([]reservation.Slot, error) {
	if err := u.Policy.Check(policy.ActionDeclare, c, policy.Resource{OwnerID: c.ID}); err != nil {
		return nil, err
	}

	decl := reservation.Declaration{OwnerID: c.ID, Day: req.Day, Start: req.Start, End: req.End}
	slots, err := u.Slots.Decompose(decl)
	if err != nil {
		return nil, err
	}
	windowStart, windowEnd := slots[0].Start, slots[len(slots)-1].End

	now := u.now()
	for i := range slots {
		slots[i].ID = u.newID()
		slots[i].CreatedAt = now
		slots[i].UpdatedAt = now
	}

	err = u.Store.InTx(ctx, reservation.TxOptions{Serializable: true}, func(tx reservation.Tx) error {
		n, err := tx.CountOverlapping(ctx, c.ID, windowStart, windowEnd)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d slot(s) in %s..%s", reservation.ErrOverlap, n,
				windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
		}
		return tx.InsertSlots(ctx, slots)
	})
	if err != nil {
		u.logFailure("declare availability", err, zap.String("owner_id", c.ID), zap.String("day", req.Day))
		return nil, err
	}

	u.log().Info("availability declared",
		zap.String("owner_id", c.ID),
		zap.Time("start", windowStart),
		zap.Time("end", windowEnd),
		zap.Int("slots", len(slots)),
	)
	return slots, nil
}
