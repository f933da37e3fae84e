package habits

import (
	"errors"
	"testing"

	"github.com/ecotrace/ecotrace-go/internal/api"
)

func TestApplyTrack(t *testing.T) {
	user := api.User{ID: 1, TrackedHabits: []int{1, 2}}

	got := ApplyTrack(user, 3)
	if !got.Tracks(3) {
		t.Error("habit 3 should be tracked")
	}
	if len(user.TrackedHabits) != 2 {
		t.Error("input user must not be mutated")
	}

	again := ApplyTrack(got, 3)
	if len(again.TrackedHabits) != 3 {
		t.Errorf("tracking twice should be a no-op, got %v", again.TrackedHabits)
	}
}

func TestApplyUntrack(t *testing.T) {
	user := api.User{ID: 1, TrackedHabits: []int{1, 2, 3}}

	got := ApplyUntrack(user, 2)
	if got.Tracks(2) {
		t.Error("habit 2 should be untracked")
	}
	if len(got.TrackedHabits) != 2 {
		t.Errorf("TrackedHabits = %v", got.TrackedHabits)
	}
	if len(user.TrackedHabits) != 3 {
		t.Error("input user must not be mutated")
	}

	same := ApplyUntrack(got, 99)
	if len(same.TrackedHabits) != 2 {
		t.Error("untracking an untracked habit should be a no-op")
	}
}

func TestReconcile(t *testing.T) {
	prev := api.User{ID: 1, TrackedHabits: []int{1}}
	optimistic := ApplyTrack(prev, 2)
	server := api.User{ID: 1, TrackedHabits: []int{1, 2}, TotalImpactPoints: 5}

	if got := Reconcile(prev, optimistic, server, nil); got.TotalImpactPoints != 5 {
		t.Errorf("server record should win on success: %+v", got)
	}

	if got := Reconcile(prev, optimistic, api.User{}, errors.New("boom")); got.Tracks(2) {
		t.Errorf("failure should roll back to the previous record: %+v", got)
	}

	if got := Reconcile(prev, optimistic, api.User{}, nil); !got.Tracks(2) {
		t.Errorf("empty server record should keep the optimistic view: %+v", got)
	}
}

func TestStats(t *testing.T) {
	catalog := []api.Habit{
		{ID: 1, Impact: 10},
		{ID: 2, Impact: 5},
		{ID: 3, Impact: 3},
	}

	s := Stats(catalog, []int{1, 3, 99})
	if s.TotalHabits != 3 || s.TrackedHabits != 2 {
		t.Errorf("counts = %d/%d, want 2/3", s.TrackedHabits, s.TotalHabits)
	}
	if s.TotalPossiblePoints != 18 || s.TrackedPoints != 13 {
		t.Errorf("points = %d/%d, want 13/18", s.TrackedPoints, s.TotalPossiblePoints)
	}
	if s.CompletionRate < 0.66 || s.CompletionRate > 0.67 {
		t.Errorf("rate = %f", s.CompletionRate)
	}
}

func TestStatsEmptyCatalog(t *testing.T) {
	s := Stats(nil, []int{1})
	if s.CompletionRate != 0 {
		t.Errorf("empty catalog rate = %f, want 0", s.CompletionRate)
	}
}
