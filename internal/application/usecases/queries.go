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
)

type ListAvailability struct {
	Deps
}

func (u ListAvailability) Execute(ctx context.Context, ownerID string) ([]reservation.Slot, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", internaltypes.ErrValidation)
	}
	return u.Store.SlotsByOwner(ctx, ownerID)
}

type SearchAvailability struct {
	Deps
}

func (u SearchAvailability) Execute(ctx context.Context, f reservation.SlotFilter) ([]reservation.Slot, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, fmt.Errorf("%w: search upper bound precedes lower bound", internaltypes.ErrValidation)
	}
	return u.Store.SearchSlots(ctx, f)
}

// ListMine returns the caller's reservations, most recent first: providers
// see reservations on their slots, clients the ones they made.
type ListMine struct {
	Deps
}

func (u ListMine) Execute(ctx context.Context, c user.Caller) ([]ReservationView, error) {
	if err := u.Policy.Check(policy.ActionListMine, c, policy.Resource{OwnerID: c.ID, RequesterID: c.ID}); err != nil {
		return nil, err
	}

	var (
		rs  []reservation.Reservation
		err error
	)
	switch c.Role {
	case user.RoleProvider:
		rs, err = u.Store.ReservationsByOwner(ctx, c.ID)
	case user.RoleClient:
		rs, err = u.Store.ReservationsByRequester(ctx, c.ID)
	default:
		return nil, fmt.Errorf("%w: no reservation listing for role %s", internaltypes.ErrForbidden, c.Role)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.SlotID)
	}
	slots, err := u.Store.SlotsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ReservationView, 0, len(rs))
	for _, r := range rs {
		out = append(out, ReservationView{
			Reservation: r,
			Slot:        slots[r.SlotID],
			Provider:    u.resolve(ctx, r.OwnerID),
			Requester:   u.resolve(ctx, r.RequesterID),
		})
	}
	return out, nil
}

// LookupAccess serves the signaling collaborator. Execute is read-only and
// unauthenticated; ExecuteFor also applies the lookup rule.
type LookupAccess struct {
	Deps
}

func (u LookupAccess) Execute(ctx context.Context, reservationID string) (reservation.Access, error) {
	r, err := u.Store.Reservation(ctx, reservationID)
	if errors.Is(err, internaltypes.ErrNotFound) {
		return reservation.Access{}, fmt.Errorf("%w: %s", reservation.ErrReservationNotFound, reservationID)
	}
	if err != nil {
		return reservation.Access{}, err
	}
	return reservation.Access{ID: r.ID, OwnerID: r.OwnerID, RequesterID: r.RequesterID, Status: r.Status}, nil
}

func (u LookupAccess) ExecuteFor(ctx context.Context, c user.Caller, reservationID string) (reservation.Access, error) {
	a, err := u.Execute(ctx, reservationID)
	if err != nil {
		return reservation.Access{}, err
	}
	if err := u.Policy.Check(policy.ActionLookup, c, policy.Resource{OwnerID: a.OwnerID, RequesterID: a.RequesterID}); err != nil {
		return reservation.Access{}, err
	}
	return a, nil
}
