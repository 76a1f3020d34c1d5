package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/slot-scheduler/internal/internaltypes"
)

const dayLayout = "2006-01-02"

// Declaration is a provider's request to publish [Start, End) on Day.
type Declaration struct {
	OwnerID string
	Day     string // YYYY-MM-DD
	Start   string // HH:MM
	End     string // HH:MM
}

// Decomposer splits declared ranges into fixed-size slots. Day and time of
// day are read in Location (UTC when nil).
type Decomposer struct {
	Unit     time.Duration
	Location *time.Location
}

// Window returns the absolute instants bounding the declaration after
// validating it.
func (d Decomposer) Window(decl Declaration) (time.Time, time.Time, error) {
	if strings.TrimSpace(decl.OwnerID) == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: owner is required", internaltypes.ErrValidation)
	}
	if d.Unit < time.Minute || d.Unit%time.Minute != 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: slot duration %s must be a positive number of minutes", internaltypes.ErrValidation, d.Unit)
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation(dayLayout, strings.TrimSpace(decl.Day), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDay, decl.Day)
	}
	startMin, err := ParseClock(decl.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := ParseClock(decl.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endMin <= startMin {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s-%s", ErrNonChronological, decl.Start, decl.End)
	}
	unitMin := int(d.Unit / time.Minute)
	if (endMin-startMin)%unitMin != 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s-%s by %s", ErrNotMultiple, decl.Start, decl.End, d.Unit)
	}

	y, m, dd := day.Date()
	start := time.Date(y, m, dd, startMin/60, startMin%60, 0, 0, loc)
	n := (endMin - startMin) / unitMin
	return start.UTC(), start.Add(time.Duration(n) * d.Unit).UTC(), nil
}

// Decompose returns the ordered, unbooked, unpersisted slots covering the
// declaration. Slot i spans [start+i*Unit, start+(i+1)*Unit).
func (d Decomposer) Decompose(decl Declaration) ([]Slot, error) {
	start, end, err := d.Window(decl)
	if err != nil {
		return nil, err
	}
	n := int(end.Sub(start) / d.Unit)
	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		s := start.Add(time.Duration(i) * d.Unit)
		slots = append(slots, Slot{
			OwnerID: decl.OwnerID,
			Start:   s,
			End:     s.Add(d.Unit),
		})
	}
	return slots, nil
}

// ParseClock parses a strict HH:MM time of day into minutes after midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	h, ok1 := twoDigits(s[0:2])
	m, ok2 := twoDigits(s[3:5])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
