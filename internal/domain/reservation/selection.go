package reservation

import "time"

// ChooseSlotStrict returns the first free slot that matches the preferred start times in order.
// Matching is minute-granularity equality on the absolute instant.
// If preferred is empty, returns the earliest free slot. Booked slots never match.
func ChooseSlotStrict(preferred []time.Time, available []Slot) (Slot, bool) {
	free := make([]Slot, 0, len(available))
	for _, s := range available {
		if !s.Booked {
			free = append(free, s)
		}
	}
	if len(free) == 0 {
		return Slot{}, false
	}
	if len(preferred) == 0 {
		best := free[0]
		for _, s := range free[1:] {
			if s.Start.Before(best.Start) {
				best = s
			}
		}
		return best, true
	}

	// minute-rounded UTC RFC3339 key
	m := make(map[string]Slot, len(free))
	for _, s := range free {
		k := minuteKey(s.Start)
		// Keep earliest if duplicates
		if existing, ok := m[k]; ok {
			if s.Start.Before(existing.Start) {
				m[k] = s
			}
			continue
		}
		m[k] = s
	}
	for _, p := range preferred {
		if s, ok := m[minuteKey(p)]; ok {
			return s, true
		}
	}
	return Slot{}, false
}

func minuteKey(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(time.RFC3339)
}
