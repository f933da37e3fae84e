package habits

import (
	"github.com/ecotrace/ecotrace-go/internal/api"
)

// Optimistic updates are pure value transformations: apply the expected
// outcome locally, run the request, then reconcile with what the server
// actually said. Keeping them pure makes rollback trivial (the previous
// value was never mutated) and testable without any I/O.

// ApplyTrack returns user with habitID added to the tracked set.
// Adding an already-tracked habit is a no-op.
func ApplyTrack(user api.User, habitID int) api.User {
	if user.Tracks(habitID) {
		return user
	}
	tracked := make([]int, len(user.TrackedHabits), len(user.TrackedHabits)+1)
	copy(tracked, user.TrackedHabits)
	user.TrackedHabits = append(tracked, habitID)
	return user
}

// ApplyUntrack returns user with habitID removed from the tracked set.
func ApplyUntrack(user api.User, habitID int) api.User {
	if !user.Tracks(habitID) {
		return user
	}
	tracked := make([]int, 0, len(user.TrackedHabits)-1)
	for _, id := range user.TrackedHabits {
		if id != habitID {
			tracked = append(tracked, id)
		}
	}
	user.TrackedHabits = tracked
	return user
}

// Reconcile resolves an optimistic update against the server outcome.
// On success the server's record wins outright; on failure the record
// from before the optimistic update is restored.
func Reconcile(prev, optimistic, result api.User, err error) api.User {
	if err != nil {
		return prev
	}
	// Guard against backends that return an empty record on success.
	if result.ID == 0 {
		return optimistic
	}
	return result
}
