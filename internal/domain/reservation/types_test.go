package reservation

import (
	"errors"
	"testing"
	"time"
)

func at(h, m int) time.Time { return time.Date(2025, 12, 1, h, m, 0, 0, time.UTC) }

func TestOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
		{"touching after", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching before", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"partial", at(9, 0), at(11, 0), at(10, 0), at(12, 0), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
	}
	for _, tt := range tests {
		if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
			t.Fatalf("%s: Overlaps = %v, want %v", tt.name, got, tt.want)
		}
		if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
			t.Fatalf("%s: Overlaps not symmetric", tt.name)
		}
	}
}

func TestSlotFilterMatch(t *testing.T) {
	t.Parallel()

	free := Slot{OwnerID: "p1", Start: at(9, 0), End: at(10, 0)}
	booked := Slot{OwnerID: "p1", Start: at(10, 0), End: at(11, 0), Booked: true}
	from, to := at(9, 0), at(10, 0)

	if !(SlotFilter{}).Match(free) {
		t.Fatalf("empty filter should match a free slot")
	}
	if (SlotFilter{}).Match(booked) {
		t.Fatalf("default filter must hide booked slots")
	}
	if !(SlotFilter{IncludeBooked: true}).Match(booked) {
		t.Fatalf("include booked should show booked slots")
	}
	if (SlotFilter{OwnerID: "p2"}).Match(free) {
		t.Fatalf("owner filter matched another owner")
	}
	if !(SlotFilter{From: &from, To: &to}).Match(free) {
		t.Fatalf("bounds are inclusive")
	}
	if (SlotFilter{To: &to, IncludeBooked: true}).Match(booked) {
		t.Fatalf("slot ending after To should not match")
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	if k, err := ParseKind("remote"); err != nil || k != KindRemote {
		t.Fatalf("ParseKind(remote) = %q, %v", k, err)
	}
	if k, err := ParseKind("IN_PERSON"); err != nil || k != KindInPerson {
		t.Fatalf("ParseKind(IN_PERSON) = %q, %v", k, err)
	}
	if _, err := ParseKind("ONLINE"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestAccessIncludes(t *testing.T) {
	t.Parallel()

	a := Access{ID: "r1", OwnerID: "p1", RequesterID: "c1", Status: StatusConfirmed}
	for id, want := range map[string]bool{"p1": true, "c1": true, "c2": false, "": false} {
		if got := a.Includes(id); got != want {
			t.Fatalf("Includes(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestReleaseOwed(t *testing.T) {
	t.Parallel()

	if !(Inconsistency{Slot: Slot{Booked: true}}).ReleaseOwed() {
		t.Fatalf("booked slot with no confirmed reservation owes a release")
	}
	if (Inconsistency{Slot: Slot{Booked: false}, Confirmed: 1}).ReleaseOwed() {
		t.Fatalf("free slot with a confirmed reservation is not a release")
	}
}

func TestChooseSlotStrict(t *testing.T) {
	t.Parallel()

	slots := []Slot{
		{ID: "a", Start: at(11, 0), End: at(12, 0)},
		{ID: "b", Start: at(9, 0), End: at(10, 0), Booked: true},
		{ID: "c", Start: at(10, 0), End: at(11, 0)},
	}

	got, ok := ChooseSlotStrict(nil, slots)
	if !ok || got.ID != "c" {
		t.Fatalf("earliest free = %q, %v, want c", got.ID, ok)
	}
	got, ok = ChooseSlotStrict([]time.Time{at(9, 0), at(11, 0), at(10, 0)}, slots)
	if !ok || got.ID != "a" {
		t.Fatalf("preferred = %q, %v, want a", got.ID, ok)
	}
	got, ok = ChooseSlotStrict([]time.Time{at(10, 0).In(time.FixedZone("x", 3600))}, slots)
	if !ok || got.ID != "c" {
		t.Fatalf("zone-shifted preference = %q, %v, want c", got.ID, ok)
	}
	if _, ok := ChooseSlotStrict([]time.Time{at(9, 0)}, slots); ok {
		t.Fatalf("booked slot must not be chosen")
	}
	if _, ok := ChooseSlotStrict(nil, nil); ok {
		t.Fatalf("empty input must not choose")
	}
}
