// Progress, history, and preference commands for the mechscope CLI.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/progress"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show or update repair progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := prog.ListAllProgress(cmd.Context())
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No repairs in progress")
			return nil
		}
		for _, p := range all {
			fmt.Printf("%-24s %-16s %d step(s) done, updated %s\n",
				p.RepairID, p.EngineID, len(p.Steps), p.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var progressSetCmd = &cobra.Command{
	Use:   "set <repair-id> <engine-id> [step...]",
	Short: "Save the completed steps for a repair",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseSteps(args[2:])
		if err != nil {
			return fmt.Errorf("steps must be integers: %w", err)
		}
		if err := prog.SaveProgress(cmd.Context(), args[0], args[1], steps); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		fmt.Printf("Saved %d step(s)\n", len(steps))
		return nil
	},
}

var progressGetCmd = &cobra.Command{
	Use:   "get <repair-id> <engine-id>",
	Short: "Show the completed steps for a repair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := prog.LoadProgress(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			fmt.Println("No progress recorded")
			return nil
		}
		labels := make([]string, len(steps))
		for i, s := range steps {
			labels[i] = fmt.Sprintf("%d", s)
		}
		fmt.Printf("Completed steps: %s\n", strings.Join(labels, ", "))
		return nil
	},
}

var progressClearCmd = &cobra.Command{
	Use:   "clear <repair-id> <engine-id>",
	Short: "Clear the progress for a repair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prog.ClearProgress(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Progress cleared")
		return nil
	},
}

var (
	logRepairName string
	logEngineName string
	logMinutes    int
	logNotes      string
	logRating     int
)

var logCmd = &cobra.Command{
	Use:   "log <repair-id> <engine-id>",
	Short: "Record a completed repair",
	Long: `Record a completed repair in the history log. The entry is folded
into the running statistics for the (repair, engine) pair, and any
in-flight progress for the pair is cleared.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		finished := time.Now()
		entry := &progress.HistoryEntry{
			RepairID:   args[0],
			RepairName: logRepairName,
			EngineID:   args[1],
			EngineName: logEngineName,
			StartedAt:  finished.Add(-time.Duration(logMinutes) * time.Minute),
			FinishedAt: finished,
			Notes:      logNotes,
		}
		if logRating != 0 {
			if logRating < 1 || logRating > 5 {
				return fmt.Errorf("rating must be between 1 and 5")
			}
			entry.Rating = &logRating
		}

		if err := prog.LogCompletedRepair(cmd.Context(), entry); err != nil {
			return fmt.Errorf("log repair: %w", err)
		}
		if err := prog.ClearProgress(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}

		fmt.Printf("Logged %s on %s (%d min), entry %s\n",
			args[0], args[1], entry.DurationMin, entry.ID)
		return nil
	},
}

var (
	historyEngine string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed repairs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := historyLimit
		if limit <= 0 {
			limit = configInt(cfgKeyHistoryLimit, defaultHistoryLimit)
		}

		entries, err := prog.GetHistory(cmd.Context(), historyEngine, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No completed repairs")
			return nil
		}

		for _, e := range entries {
			name := e.RepairName
			if name == "" {
				name = e.RepairID
			}
			line := fmt.Sprintf("%s  %-32s %-16s %4d min",
				e.FinishedAt.Format("2006-01-02"), name, e.EngineID, e.DurationMin)
			if e.Rating != nil {
				line += fmt.Sprintf("  rated %d/5", *e.Rating)
			}
			fmt.Println(line)
			fmt.Printf("    id: %s\n", e.ID)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete one history entry (statistics are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prog.DeleteHistoryEntry(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Entry deleted")
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <repair-id> <engine-id>",
	Short: "Show completion statistics for a repair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := prog.GetStatistics(cmd.Context(), args[0], args[1])
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("Never completed")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Completed %d time(s)\n", stats.TimesCompleted)
		fmt.Printf("Total time: %d min, average %.1f min\n", stats.TotalMinutes, stats.AvgMinutes)
		fmt.Printf("Last completed: %s\n", stats.LastCompletedAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var prefCmd = &cobra.Command{
	Use:   "pref",
	Short: "Manage app preferences",
}

var prefSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return prog.SetPreference(cmd.Context(), args[0], args[1])
	},
}

var prefGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := prog.Preference(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("preference %q not set", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var prefDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return prog.DeletePreference(cmd.Context(), args[0])
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all progress, history, statistics, and preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			fmt.Print("This erases all progress, history, statistics, and preferences. Continue? [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				fmt.Println("Aborted")
				return nil
			}
		}
		if err := prog.ClearAllData(cmd.Context()); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println("All user data erased")
		return nil
	},
}

func init() {
	progressCmd.AddCommand(progressSetCmd)
	progressCmd.AddCommand(progressGetCmd)
	progressCmd.AddCommand(progressClearCmd)

	logCmd.Flags().StringVar(&logRepairName, "repair-name", "", "repair display name for the log")
	logCmd.Flags().StringVar(&logEngineName, "engine-name", "", "engine display name for the log")
	logCmd.Flags().IntVar(&logMinutes, "minutes", 0, "time spent in minutes")
	logCmd.Flags().StringVar(&logNotes, "notes", "", "free-form notes")
	logCmd.Flags().IntVar(&logRating, "rating", 0, "difficulty rating (1-5)")

	historyCmd.Flags().StringVar(&historyEngine, "engine", "", "restrict to one engine")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum entries (default from config)")
	historyCmd.AddCommand(historyDeleteCmd)

	prefCmd.AddCommand(prefSetCmd)
	prefCmd.AddCommand(prefGetCmd)
	prefCmd.AddCommand(prefDeleteCmd)

	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip confirmation")
}
