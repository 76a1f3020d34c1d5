package reservation

import (
	"errors"
	"testing"
	"time"

	"github.com/example/slot-scheduler/internal/internaltypes"
)

func TestDecomposeCountAndBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		unit  time.Duration
		start string
		end   string
		want  int
	}{
		{name: "single hour", unit: time.Hour, start: "09:00", end: "10:00", want: 1},
		{name: "two hours", unit: time.Hour, start: "09:00", end: "11:00", want: 2},
		{name: "whole day", unit: time.Hour, start: "00:00", end: "23:00", want: 23},
		{name: "half hours", unit: 30 * time.Minute, start: "08:30", end: "12:00", want: 7},
		{name: "quarter hours", unit: 15 * time.Minute, start: "13:15", end: "14:00", want: 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Decomposer{Unit: tt.unit}
			slots, err := d.Decompose(Declaration{OwnerID: "p1", Day: "2025-12-01", Start: tt.start, End: tt.end})
			if err != nil {
				t.Fatalf("Decompose: %v", err)
			}
			if len(slots) != tt.want {
				t.Fatalf("expected %d slots, got %d", tt.want, len(slots))
			}
			windowStart, windowEnd, err := d.Window(Declaration{OwnerID: "p1", Day: "2025-12-01", Start: tt.start, End: tt.end})
			if err != nil {
				t.Fatalf("Window: %v", err)
			}
			if !slots[0].Start.Equal(windowStart) {
				t.Fatalf("first start = %v, want %v", slots[0].Start, windowStart)
			}
			if !slots[len(slots)-1].End.Equal(windowEnd) {
				t.Fatalf("last end = %v, want %v", slots[len(slots)-1].End, windowEnd)
			}
			for i, s := range slots {
				if s.End.Sub(s.Start) != tt.unit {
					t.Fatalf("slot %d spans %v, want %v", i, s.End.Sub(s.Start), tt.unit)
				}
				if i > 0 && !s.Start.Equal(slots[i-1].End) {
					t.Fatalf("slot %d starts at %v, previous ends at %v", i, s.Start, slots[i-1].End)
				}
				if s.Booked || s.ID != "" || s.OwnerID != "p1" {
					t.Fatalf("unexpected slot %+v", s)
				}
			}
		})
	}
}

func TestDecomposeMorningScenario(t *testing.T) {
	t.Parallel()

	slots, err := Decomposer{Unit: time.Hour}.Decompose(Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:00", End: "11:00"})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	want := []struct{ start, end time.Time }{
		{time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC), time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC), time.Date(2025, 12, 1, 11, 0, 0, 0, time.UTC)},
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, w := range want {
		if !slots[i].Start.Equal(w.start) || !slots[i].End.Equal(w.end) {
			t.Fatalf("slot %d = [%v, %v), want [%v, %v)", i, slots[i].Start, slots[i].End, w.start, w.end)
		}
	}
}

func TestDecomposeUsesLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	slots, err := Decomposer{Unit: time.Hour, Location: loc}.Decompose(Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:00", End: "10:00"})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	want := time.Date(2025, 12, 1, 7, 0, 0, 0, time.UTC)
	if !slots[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", slots[0].Start, want)
	}
	if slots[0].Start.Location() != time.UTC {
		t.Fatalf("expected UTC instants, got %v", slots[0].Start.Location())
	}
}

func TestDecomposeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		decl Declaration
		want error
	}{
		{name: "not multiple", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:00", End: "10:30"}, want: ErrNotMultiple},
		{name: "equal bounds", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:00", End: "09:00"}, want: ErrNonChronological},
		{name: "reversed", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "11:00", End: "09:00"}, want: ErrNonChronological},
		{name: "hour out of range", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "24:00", End: "25:00"}, want: ErrMalformedTime},
		{name: "minute out of range", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:60", End: "10:00"}, want: ErrMalformedTime},
		{name: "single digit hour", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "9:00", End: "10:00"}, want: ErrMalformedTime},
		{name: "seconds", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:00:00", End: "10:00"}, want: ErrMalformedTime},
		{name: "letters", decl: Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "ab:cd", End: "10:00"}, want: ErrMalformedTime},
		{name: "bad day", decl: Declaration{OwnerID: "p1", Day: "2025-13-01", Start: "09:00", End: "10:00"}, want: ErrMalformedDay},
		{name: "empty day", decl: Declaration{OwnerID: "p1", Start: "09:00", End: "10:00"}, want: ErrMalformedDay},
		{name: "no owner", decl: Declaration{Day: "2025-12-01", Start: "09:00", End: "10:00"}, want: internaltypes.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			slots, err := Decomposer{Unit: time.Hour}.Decompose(tt.decl)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, internaltypes.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if slots != nil {
				t.Fatalf("expected no slots, got %d", len(slots))
			}
		})
	}
}

func TestDecomposeRejectsBadUnit(t *testing.T) {
	t.Parallel()

	for _, unit := range []time.Duration{0, -time.Hour, 90 * time.Second} {
		_, err := Decomposer{Unit: unit}.Decompose(Declaration{OwnerID: "p1", Day: "2025-12-01", Start: "09:00", End: "10:00"})
		if !errors.Is(err, internaltypes.ErrValidation) {
			t.Fatalf("unit %v: err = %v, want validation", unit, err)
		}
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"00:00": 0, "09:05": 545, "23:59": 1439}
	for in, want := range tests {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %d, want %d", in, got, want)
		}
	}
}
