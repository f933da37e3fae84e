package habits

import "github.com/ecotrace/ecotrace-go/internal/api"

// Summary aggregates a user's habit-tracking progress over the catalog.
type Summary struct {
	TotalHabits         int
	TrackedHabits       int
	CompletionRate      float64
	TotalPossiblePoints int
	TrackedPoints       int
}

// Stats computes tracking statistics for a tracked-habit set against
// the full catalog. Tracked IDs that no longer exist in the catalog are
// ignored.
func Stats(catalog []api.Habit, tracked []int) Summary {
	trackedSet := make(map[int]bool, len(tracked))
	for _, id := range tracked {
		trackedSet[id] = true
	}

	s := Summary{TotalHabits: len(catalog)}
	for _, h := range catalog {
		s.TotalPossiblePoints += h.Impact
		if trackedSet[h.ID] {
			s.TrackedHabits++
			s.TrackedPoints += h.Impact
		}
	}
	if s.TotalHabits > 0 {
		s.CompletionRate = float64(s.TrackedHabits) / float64(s.TotalHabits)
	}
	return s
}
