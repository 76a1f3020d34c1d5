package reservation

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindRemote   Kind = "REMOTE"
	KindInPerson Kind = "IN_PERSON"
)

func (k Kind) Valid() bool {
	return k == KindRemote || k == KindInPerson
}

// ParseKind accepts the canonical names case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Slot is one bookable unit of a provider's time. Start and End are absolute
// instants; End-Start equals the configured slot duration.
type Slot struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Booked    bool      `json:"booked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Slot) Overlaps(start, end time.Time) bool {
	return Overlaps(s.Start, s.End, start, end)
}

type Reservation struct {
	ID          string `json:"id"`
	SlotID      string `json:"slot_id"`
	OwnerID     string `json:"owner_id"`
	RequesterID string `json:"requester_id"`
	Kind        Kind   `json:"kind"`
	// Set only for KindRemote; never changes after booking.
	SessionToken string    `json:"session_token,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r Reservation) Cancelled() bool { return r.Status == StatusCancelled }

// SlotFilter drives availability search. Nil bounds are open.
type SlotFilter struct {
	OwnerID string
	// From is an inclusive lower bound on Start.
	From *time.Time
	// To is an inclusive upper bound on End.
	To            *time.Time
	IncludeBooked bool
}

func (f SlotFilter) Match(s Slot) bool {
	if f.OwnerID != "" && s.OwnerID != f.OwnerID {
		return false
	}
	if f.From != nil && s.Start.Before(*f.From) {
		return false
	}
	if f.To != nil && s.End.After(*f.To) {
		return false
	}
	if !f.IncludeBooked && s.Booked {
		return false
	}
	return true
}

// Inconsistency is a slot whose booked flag disagrees with the number of
// CONFIRMED reservations pointing at it.
type Inconsistency struct {
	Slot      Slot `json:"slot"`
	Confirmed int  `json:"confirmed"`
}

// ReleaseOwed reports a booked slot whose reservations were all cancelled
// without the release being applied.
func (i Inconsistency) ReleaseOwed() bool { return i.Slot.Booked && i.Confirmed == 0 }

// Access is the read-only projection handed to the session signaling
// collaborator.
type Access struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	RequesterID string `json:"requester_id"`
	Status      Status `json:"status"`
}

// Includes reports whether userID is a party to the reservation.
func (a Access) Includes(userID string) bool {
	return userID != "" && (userID == a.OwnerID || userID == a.RequesterID)
}
