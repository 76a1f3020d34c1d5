package postgres

import (
	"context"
	"fmt"

	"github.com/example/slot-scheduler/internal/db"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
)

func participantByID(ctx context.Context, q db.Querier, id string) (user.User, error) {
	row := q.QueryRow(ctx, `SELECT id, role, display_name, active, created_at FROM participants WHERE id=$1`, id)
	var (
		u    user.User
		role string
	)
	if err := row.Scan(&u.ID, &role, &u.DisplayName, &u.Active, &u.CreatedAt); err != nil {
		if db.IsNotFound(err) {
			return user.User{}, internaltypes.ErrNotFound
		}
		return user.User{}, fmt.Errorf("participant %s: %w", id, err)
	}
	u.Role = user.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// upsertParticipant registers or refreshes a participant. created_at keeps
// its first value.
func upsertParticipant(ctx context.Context, q db.Querier, u user.User) error {
	_, err := q.Exec(ctx, `
		INSERT INTO participants (id, role, display_name, active, created_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET role=EXCLUDED.role, display_name=EXCLUDED.display_name, active=EXCLUDED.active
	`, u.ID, string(u.Role), u.DisplayName, u.Active, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}
