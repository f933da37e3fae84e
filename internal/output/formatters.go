// Package output provides output formatting utilities for the EcoTrace CLI.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/ecotrace/ecotrace-go/internal/api"
)

// PrintJSON prints a single item as formatted JSON.
func PrintJSON(item interface{}) {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error formatting JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// PrintHabits writes the habit catalog as an aligned table. Tracked
// habits are marked in the first column.
func PrintHabits(habits []api.Habit, tracked []int) {
	trackedSet := make(map[int]bool, len(tracked))
	for _, id := range tracked {
		trackedSet[id] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  \tID\tNAME\tCATEGORY\tIMPACT")
	for _, h := range habits {
		mark := " "
		if trackedSet[h.ID] {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\n", mark, h.ID, h.Name, h.Category, h.Impact)
	}
	w.Flush()
}

// PrintChallenges writes the challenge list as an aligned table.
func PrintChallenges(challenges []api.Challenge) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDURATION\tPARTICIPANTS\tREWARD")
	for _, c := range challenges {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n", c.ID, c.Name, c.Duration, c.Participants, c.Reward)
	}
	w.Flush()
}

// PrintLeaderboard writes users ranked by impact points, highest first.
func PrintLeaderboard(users []api.User) {
	ranked := make([]api.User, len(users))
	copy(ranked, users)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalImpactPoints > ranked[j].TotalImpactPoints
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSERNAME\tPOINTS")
	for i, u := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, u.Username, u.TotalImpactPoints)
	}
	w.Flush()
}
