package reservation

import (
	"context"
	"time"
)

const (
	EventConfirmed = "reservation.confirmed"
	EventCancelled = "reservation.cancelled"
)

// Event is emitted after a reservation transition commits.
type Event struct {
	Type        string      `json:"type"`
	Reservation Reservation `json:"reservation"`
	Slot        Slot        `json:"slot"`
	At          time.Time   `json:"at"`
}

// Publisher delivers events to collaborators. Delivery is best effort: the
// transition is already durable when Publish runs.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
