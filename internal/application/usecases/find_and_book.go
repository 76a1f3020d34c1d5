package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
)

type FindAndBookRequest struct {
	OwnerID string
	Day     string // YYYY-MM-DD
	// Preferred start times of day (HH:MM), earlier entries win. Empty
	// means the earliest free slot.
	Preferred []string
	Kind      reservation.Kind
}

// FindAndBook picks a free slot of one provider on one day by preference
// and books it.
type FindAndBook struct {
	Deps
	Slots reservation.Decomposer
}

func (u FindAndBook) Execute(ctx context.Context, c user.Caller, req FindAndBookRequest) (ReservationView, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return ReservationView{}, fmt.Errorf("%w: owner id is required", internaltypes.ErrValidation)
	}
	loc := u.Slots.Location
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Day), loc)
	if err != nil {
		return ReservationView{}, fmt.Errorf("%w: %q", reservation.ErrMalformedDay, req.Day)
	}

	preferred := make([]time.Time, 0, len(req.Preferred))
	for _, p := range req.Preferred {
		m, err := reservation.ParseClock(p)
		if err != nil {
			return ReservationView{}, err
		}
		y, mo, d := day.Date()
		preferred = append(preferred, time.Date(y, mo, d, m/60, m%60, 0, 0, loc))
	}

	from, to := day, day.AddDate(0, 0, 1)
	slots, err := u.Store.SearchSlots(ctx, reservation.SlotFilter{OwnerID: req.OwnerID, From: &from, To: &to})
	if err != nil {
		return ReservationView{}, err
	}
	slot, ok := reservation.ChooseSlotStrict(preferred, slots)
	if !ok {
		return ReservationView{}, fmt.Errorf("%w: no free slot of %s matches on %s", reservation.ErrSlotNotFound, req.OwnerID, req.Day)
	}
	return BookSlot{Deps: u.Deps}.Execute(ctx, c, BookRequest{SlotID: slot.ID, Kind: req.Kind})
}
