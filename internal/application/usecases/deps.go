package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"github.com/example/slot-scheduler/internal/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Participants resolves participant profiles outside of transactions.
type Participants interface {
	Resolve(ctx context.Context, id string) (user.User, error)
}

// Deps is shared by every use case.
type Deps struct {
	Store  reservation.Store
	Policy policy.Policy

	// Optional. Falls back to Store when nil.
	Participants Participants
	// Optional. Events are dropped when nil.
	Events reservation.Publisher
	Log    *zap.Logger

	Now      func() time.Time
	NewID    func() string
	NewToken func() string
}

func (d Deps) log() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// now is truncated to microseconds so values round-trip through both stores.
func (d Deps) now() time.Time {
	f := d.Now
	if f == nil {
		f = time.Now
	}
	return f().UTC().Truncate(time.Microsecond)
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

func (d Deps) newToken() string {
	if d.NewToken != nil {
		return d.NewToken()
	}
	return uuid.NewString()
}

// resolve returns the participant or a stub carrying only the id. Listing
// and hydration never fail because a profile is missing.
func (d Deps) resolve(ctx context.Context, id string) user.User {
	var (
		u   user.User
		err error
	)
	if d.Participants != nil {
		u, err = d.Participants.Resolve(ctx, id)
	} else {
		u, err = d.Store.Participant(ctx, id)
	}
	if err != nil {
		if !errors.Is(err, internaltypes.ErrNotFound) {
			d.log().Warn("resolve participant", zap.String("participant_id", id), zap.Error(err))
		}
		return user.User{ID: id}
	}
	return u
}

// resolveTx is resolve inside a transaction.
func resolveTx(ctx context.Context, tx reservation.Tx, id string) (user.User, error) {
	u, err := tx.Participant(ctx, id)
	if errors.Is(err, internaltypes.ErrNotFound) {
		return user.User{ID: id}, nil
	}
	return u, err
}

// publish runs after commit; failures are logged and swallowed.
func (d Deps) publish(ctx context.Context, typ string, r reservation.Reservation, s reservation.Slot) {
	if d.Events == nil {
		return
	}
	e := reservation.Event{Type: typ, Reservation: r, Slot: s, At: d.now()}
	if err := d.Events.Publish(ctx, e); err != nil {
		d.log().Warn("publish event",
			zap.String("event", typ),
			zap.String("reservation_id", r.ID),
			zap.Error(err),
		)
	}
}

// logFailure logs expected outcomes at debug and everything else at error.
func (d Deps) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("class", internaltypes.Class(err)), zap.Error(err))
	if internaltypes.Class(err) == "internal" {
		d.log().Error(msg, fields...)
		return
	}
	d.log().Debug(msg, fields...)
}
