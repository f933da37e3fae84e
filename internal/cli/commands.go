package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ecotrace/ecotrace-go/internal/habits"
	"github.com/ecotrace/ecotrace-go/internal/output"
)

func init() {
	// Add all subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(habitsCmd)
	rootCmd.AddCommand(challengesCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(healthCmd)

	habitsCmd.AddCommand(habitsListCmd)
	habitsCmd.AddCommand(habitsTrackCmd)
	habitsCmd.AddCommand(habitsUntrackCmd)
	habitsCmd.AddCommand(habitsCompleteCmd)
	habitsCmd.AddCommand(habitsStatsCmd)

	challengesCmd.AddCommand(challengesListCmd)
	challengesCmd.AddCommand(challengesJoinCmd)
	challengesCmd.AddCommand(challengesLeaveCmd)

	cacheCmd.AddCommand(cacheClearCmd)

	refreshCmd.Flags().Bool("force", false, "Refresh even if data is fresh")
	habitsListCmd.Flags().Bool("force", false, "Bypass the cache")
	challengesListCmd.Flags().Bool("force", false, "Bypass the cache")
	leaderboardCmd.Flags().Bool("force", false, "Bypass the cache")
}

// withApp builds the component graph, runs fn, and tears down.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		err = fn(a, cmd, args)
		a.reportNotifications()
		return err
	}
}

func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q", what, arg)
	}
	return id, nil
}

var loginCmd = &cobra.Command{
	Use:   "login [email] [password]",
	Short: "Sign in to EcoTrace",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.auth.Login(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		user, err := a.requireUser()
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%d points)\n", user.Username, user.TotalImpactPoints)
		return nil
	}),
}

var signupCmd = &cobra.Command{
	Use:   "signup [username] [email] [password]",
	Short: "Create an EcoTrace account",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.auth.Signup(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Welcome to EcoTrace, %s!\n", args[0])
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		// Queued mutations belong to the departing user; drop them
		// before the session goes away.
		a.habits.CancelPending()
		a.auth.Logout(cmd.Context())
		fmt.Println("Signed out.")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		info := a.sessions.Info(cmd.Context())
		if !info.HasUser {
			fmt.Println("Not signed in.")
			return nil
		}
		if raw {
			output.PrintJSON(info)
			return nil
		}
		fmt.Printf("%s (user %d)\n", info.Username, info.UserID)
		if info.HasToken {
			fmt.Printf("token: %s\n", info.TokenPreview)
		}
		return nil
	}),
}

var habitsCmd = &cobra.Command{
	Use:   "habits",
	Short: "Browse and manage habits",
}

var habitsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the habit catalog",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if err := a.sync.RefreshHabits(cmd.Context(), force); err != nil {
			return err
		}
		snap := a.sync.Snapshot()
		if raw {
			output.PrintJSON(snap.Habits)
			return nil
		}
		var tracked []int
		if user, err := a.requireUser(); err == nil {
			tracked = user.TrackedHabits
		}
		output.PrintHabits(snap.Habits, tracked)
		return nil
	}),
}

var habitsTrackCmd = &cobra.Command{
	Use:   "track [habit-id]",
	Short: "Start tracking a habit",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "habit")
		if err != nil {
			return err
		}
		if err := a.habits.TrackHabit(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Tracking habit %d.\n", id)
		return nil
	}),
}

var habitsUntrackCmd = &cobra.Command{
	Use:   "untrack [habit-id]",
	Short: "Stop tracking a habit",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "habit")
		if err != nil {
			return err
		}
		if err := a.habits.UntrackHabit(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Stopped tracking habit %d.\n", id)
		return nil
	}),
}

var habitsCompleteCmd = &cobra.Command{
	Use:   "complete [habit-id]",
	Short: "Record a habit completion",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "habit")
		if err != nil {
			return err
		}
		result, err := a.habits.CompleteHabit(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("+%d points! Total: %d\n", result.PointsEarned, result.NewTotal)
		return nil
	}),
}

var habitsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your tracking statistics",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		user, err := a.requireUser()
		if err != nil {
			return err
		}
		if err := a.sync.RefreshHabits(cmd.Context(), false); err != nil {
			return err
		}
		summary := habits.Stats(a.sync.Snapshot().Habits, user.TrackedHabits)
		if raw {
			output.PrintJSON(summary)
			return nil
		}
		fmt.Printf("Tracking %d of %d habits (%.0f%%)\n",
			summary.TrackedHabits, summary.TotalHabits, summary.CompletionRate*100)
		fmt.Printf("Impact potential: %d of %d points\n",
			summary.TrackedPoints, summary.TotalPossiblePoints)
		return nil
	}),
}

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "Browse and join community challenges",
}

var challengesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active challenges",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if err := a.sync.RefreshChallenges(cmd.Context(), force); err != nil {
			return err
		}
		challenges := a.sync.Snapshot().Challenges
		if raw {
			output.PrintJSON(challenges)
			return nil
		}
		output.PrintChallenges(challenges)
		return nil
	}),
}

var challengesJoinCmd = &cobra.Command{
	Use:   "join [challenge-id]",
	Short: "Join a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "challenge")
		if err != nil {
			return err
		}
		if err := a.habits.JoinChallenge(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Joined challenge %d.\n", id)
		return nil
	}),
}

var challengesLeaveCmd = &cobra.Command{
	Use:   "leave [challenge-id]",
	Short: "Leave a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "challenge")
		if err != nil {
			return err
		}
		if err := a.habits.LeaveChallenge(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Left challenge %d.\n", id)
		return nil
	}),
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the community leaderboard",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if err := a.sync.RefreshUsers(cmd.Context(), force); err != nil {
			return err
		}
		users := a.sync.Snapshot().Users
		if raw {
			output.PrintJSON(users)
			return nil
		}
		output.PrintLeaderboard(users)
		return nil
	}),
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh all app data from the backend",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if err := a.sync.RefreshData(cmd.Context(), force); err != nil {
			return err
		}
		snap := a.sync.Snapshot()
		fmt.Printf("Refreshed: %d habits, %d challenges, %d users (as of %s)\n",
			len(snap.Habits), len(snap.Challenges), len(snap.Users),
			snap.LastUpdated.Format("15:04:05"))
		return nil
	}),
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached data",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached data (session is preserved)",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		a.sync.ClearCache(cmd.Context())
		fmt.Println("Cache cleared.")
		return nil
	}),
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if !a.client.TestConnection(cmd.Context()) {
			return fmt.Errorf("backend unreachable at %s", a.cfg.APIBaseURL)
		}
		status, err := a.client.HealthCheck(cmd.Context())
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Printf("Backend: %s\n", status.Status)
		return nil
	}),
}
