package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
	"go.uber.org/zap"
)

type RegisterParticipant struct {
	Deps
}

func (u RegisterParticipant) Execute(ctx context.Context, p user.User) (user.User, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return user.User{}, fmt.Errorf("%w: participant id is required", internaltypes.ErrValidation)
	}
	if !p.Role.Valid() {
		return user.User{}, fmt.Errorf("%w: unknown role %q", internaltypes.ErrValidation, p.Role)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = u.now()
	}
	if err := u.Store.PutParticipant(ctx, p); err != nil {
		return user.User{}, err
	}
	if f, ok := u.Participants.(interface{ Forget(id string) }); ok {
		f.Forget(p.ID)
	}
	u.log().Info("participant registered",
		zap.String("participant_id", p.ID),
		zap.String("role", string(p.Role)),
		zap.Bool("active", p.Active),
	)
	return p, nil
}
