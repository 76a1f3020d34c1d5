package reservation

import (
	"fmt"

	"github.com/example/slot-scheduler/internal/internaltypes"
)

var (
	ErrMalformedDay     = fmt.Errorf("%w: malformed day", internaltypes.ErrValidation)
	ErrMalformedTime    = fmt.Errorf("%w: malformed time of day", internaltypes.ErrValidation)
	ErrNonChronological = fmt.Errorf("%w: end must be after start", internaltypes.ErrValidation)
	ErrNotMultiple      = fmt.Errorf("%w: range is not a multiple of the slot duration", internaltypes.ErrValidation)
	ErrInvalidKind      = fmt.Errorf("%w: unknown reservation kind", internaltypes.ErrValidation)

	ErrOverlap    = fmt.Errorf("%w: range overlaps existing availability", internaltypes.ErrConflict)
	ErrSlotBooked = fmt.Errorf("%w: slot already booked", internaltypes.ErrConflict)
	// ErrBusy is retryable: a lock wait timed out or the transaction lost a
	// serialization race.
	ErrBusy = fmt.Errorf("%w: busy, retry", internaltypes.ErrConflict)

	ErrSlotNotFound        = fmt.Errorf("%w: slot", internaltypes.ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("%w: reservation", internaltypes.ErrNotFound)
	ErrProviderNotFound    = fmt.Errorf("%w: provider", internaltypes.ErrNotFound)
)
