package usecases

import (
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
)

// ReservationView is a reservation hydrated with its slot and both parties.
type ReservationView struct {
	reservation.Reservation
	Slot      reservation.Slot `json:"slot"`
	Provider  user.User        `json:"provider"`
	Requester user.User        `json:"requester"`
}
