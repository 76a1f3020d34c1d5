package usecases

import (
	"context"
	"time"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/policy"
	"go.uber.org/zap"
)

// Engine is the entry point adapters call. It only wires the use cases
// together; each operation lives in its own type.
type Engine struct {
	Deps
	Slots reservation.Decomposer
}

type Option func(*Engine)

func WithPolicy(p policy.Policy) Option            { return func(e *Engine) { e.Policy = p } }
func WithLogger(l *zap.Logger) Option              { return func(e *Engine) { e.Log = l } }
func WithEvents(p reservation.Publisher) Option    { return func(e *Engine) { e.Events = p } }
func WithParticipants(p Participants) Option       { return func(e *Engine) { e.Participants = p } }
func WithClock(now func() time.Time) Option        { return func(e *Engine) { e.Now = now } }
func WithIDs(newID, newToken func() string) Option { return func(e *Engine) { e.NewID, e.NewToken = newID, newToken } }

// NewEngine uses policy.Default unless overridden.
func NewEngine(store reservation.Store, slots reservation.Decomposer, opts ...Option) *Engine {
	e := &Engine{
		Deps:  Deps{Store: store, Policy: policy.Default()},
		Slots: slots,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) DeclareAvailability(ctx context.Context, c user.Caller, req DeclareRequest) ([]reservation.Slot, error) {
	return DeclareAvailability{Deps: e.Deps, Slots: e.Slots}.Execute(ctx, c, req)
}

func (e *Engine) ListAvailability(ctx context.Context, ownerID string) ([]reservation.Slot, error) {
	return ListAvailability{Deps: e.Deps}.Execute(ctx, ownerID)
}

func (e *Engine) SearchAvailability(ctx context.Context, f reservation.SlotFilter) ([]reservation.Slot, error) {
	return SearchAvailability{Deps: e.Deps}.Execute(ctx, f)
}

func (e *Engine) Book(ctx context.Context, c user.Caller, req BookRequest) (ReservationView, error) {
	return BookSlot{Deps: e.Deps}.Execute(ctx, c, req)
}

func (e *Engine) FindAndBook(ctx context.Context, c user.Caller, req FindAndBookRequest) (ReservationView, error) {
	return FindAndBook{Deps: e.Deps, Slots: e.Slots}.Execute(ctx, c, req)
}

func (e *Engine) ListMine(ctx context.Context, c user.Caller) ([]ReservationView, error) {
	return ListMine{Deps: e.Deps}.Execute(ctx, c)
}

func (e *Engine) Cancel(ctx context.Context, c user.Caller, reservationID string) (ReservationView, error) {
	return CancelReservation{Deps: e.Deps}.Execute(ctx, c, reservationID)
}

func (e *Engine) Lookup(ctx context.Context, reservationID string) (reservation.Access, error) {
	return LookupAccess{Deps: e.Deps}.Execute(ctx, reservationID)
}

// LookupFor is Lookup gated by the lookup rule, for callers that are not
// already trusted.
func (e *Engine) LookupFor(ctx context.Context, c user.Caller, reservationID string) (reservation.Access, error) {
	return LookupAccess{Deps: e.Deps}.ExecuteFor(ctx, c, reservationID)
}

func (e *Engine) Reconcile(ctx context.Context, fix bool) (ReconcileReport, error) {
	return Reconcile{Deps: e.Deps, Fix: fix}.Execute(ctx)
}

// RegisterParticipant records a participant known to the identity
// collaborator. Re-registering updates role, name and active flag.
func (e *Engine) RegisterParticipant(ctx context.Context, u user.User) (user.User, error) {
	return RegisterParticipant{Deps: e.Deps}.Execute(ctx, u)
}
