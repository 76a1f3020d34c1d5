package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/slot-scheduler/internal/internaltypes"
)

type Role string

const (
	RoleProvider Role = "PROVIDER"
	RoleClient   Role = "CLIENT"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleProvider, RoleClient, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", internaltypes.ErrValidation, s)
	}
	return r, nil
}

// User is a registered participant. Identity issuance happens elsewhere;
// this is the engine's local view used to resolve providers and hydrate
// reservations.
type User struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bookable reports whether u can be the owner side of a new reservation.
func (u User) Bookable() bool { return u.Active && u.Role == RoleProvider }

// Caller is the verified identity attached to an incoming request.
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) Valid() bool { return c.ID != "" && c.Role.Valid() }
