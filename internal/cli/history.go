package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/history"
	"github.com/djklmr2025/cosmos-den/internal/logger"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent command runs",
	Long: `Show the most recent commands that were started, whatever their outcome,
oldest first. Each cosmosden invocation is its own process, so runs are read back
from the audit log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		events, err := logger.ReadEvents(cfg.LogPath)
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}

		h := history.NewExecutionHistory(cfg.HistoryLimit)
		for _, e := range events {
			if rec, ok := recordFromEvent(e); ok {
				h.Append(rec)
			}
		}
		records := h.List(historyLimit)
		return render(cmd, records, func(w io.Writer) { printRecords(w, records) })
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultListLimit, "Number of runs to show (0 for all kept)")
	rootCmd.AddCommand(historyCmd)
}

// recordFromEvent rebuilds an execution record from an audit event. Only
// runs that got as far as spawning carry an exit status.
func recordFromEvent(e logger.AuditEvent) (history.ExecutionRecord, bool) {
	if e.Type != logger.TypeCommand || e.ExitCode == nil {
		return history.ExecutionRecord{}, false
	}
	ts, _ := time.Parse(time.RFC3339, e.Timestamp)
	return history.ExecutionRecord{
		ID:        e.ID,
		Command:   e.Command,
		Cwd:       e.Cwd,
		ExitCode:  *e.ExitCode,
		Duration:  time.Duration(e.DurationMs) * time.Millisecond,
		Timestamp: ts,
		Success:   *e.ExitCode == 0 && e.Error == "",
		TimedOut:  e.TimedOut,
		Error:     e.Error,
	}, true
}

func printRecords(w io.Writer, records []history.ExecutionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No commands have run yet.")
		return
	}
	for _, r := range records {
		status := okBadge(r.Success)
		if r.TimedOut {
			status = styles.Warning.Render("TIME")
		}
		fmt.Fprintf(w, "  %s  %s  %4d  %8s  %-12s %s\n",
			status,
			styles.Subtle.Render(r.Timestamp.Local().Format("2006-01-02 15:04:05")),
			r.ExitCode,
			r.Duration.Round(time.Millisecond),
			r.Cwd,
			r.Command)
	}
}
