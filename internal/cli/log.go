package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/logger"
)

var (
	logFilterDecision string
	logFilterType     string
	logFilterFlagged  bool
	logLast           int
	logSummary        bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the audit log of file mutations, command runs and rejections.

Examples:
  cosmosden log                        # Show all entries
  cosmosden log --last 20              # Show last 20 entries
  cosmosden log --decision BLOCK       # Show only rejections
  cosmosden log --type file            # Show only file operations
  cosmosden log --flagged              # Show only flagged (AUDIT) entries
  cosmosden log --summary              # Show summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterDecision, "decision", "", "Filter by decision (ALLOW, AUDIT, BLOCK)")
	logCmd.Flags().StringVar(&logFilterType, "type", "", "Filter by event type (command, file)")
	logCmd.Flags().BoolVar(&logFilterFlagged, "flagged", false, "Show only flagged entries")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	events, err := logger.ReadEvents(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No audit log entries found.")
		return nil
	}

	filtered := filterEvents(events)
	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if jsonOutput {
		return printJSON(out, filtered)
	}
	if logSummary {
		printSummary(out, events)
		return nil
	}
	printEvents(out, filtered)
	return nil
}

func filterEvents(events []logger.AuditEvent) []logger.AuditEvent {
	if logFilterDecision == "" && logFilterType == "" && !logFilterFlagged {
		return events
	}

	var filtered []logger.AuditEvent
	for _, e := range events {
		if logFilterDecision != "" && !strings.EqualFold(e.Decision, logFilterDecision) {
			continue
		}
		if logFilterType != "" && !strings.EqualFold(e.Type, logFilterType) {
			continue
		}
		if logFilterFlagged && !e.Flagged {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEvents(w io.Writer, events []logger.AuditEvent) {
	for _, e := range events {
		subject := e.Command
		if e.Type == logger.TypeFile {
			subject = e.Op + " " + e.Path
		}
		flag := ""
		if e.Flagged {
			flag = styles.Warning.Render(" [FLAGGED]")
		}
		fmt.Fprintf(w, "%s %s %s%s\n", decisionBadge(e.Decision), styles.Subtle.Render(formatTimestamp(e.Timestamp)), subject, flag)

		if len(e.TriggeredRules) > 0 {
			fmt.Fprintf(w, "      Rules: %s\n", strings.Join(e.TriggeredRules, ", "))
		}
		for _, r := range e.Reasons {
			fmt.Fprintf(w, "      Reason: %s\n", r)
		}
		if e.ExitCode != nil {
			fmt.Fprintf(w, "      Exit: %d in %s\n", *e.ExitCode, time.Duration(e.DurationMs)*time.Millisecond)
		}
		if e.Error != "" {
			fmt.Fprintf(w, "      Error: %s\n", styles.Err.Render(e.Error))
		}
		if e.Cwd != "" {
			fmt.Fprintf(w, "      Cwd: %s\n", e.Cwd)
		}
	}
}

func printSummary(w io.Writer, all []logger.AuditEvent) {
	counts := map[string]int{}
	types := map[string]int{}
	flaggedCount := 0
	errorCount := 0
	timeouts := 0

	for _, e := range all {
		counts[e.Decision]++
		types[e.Type]++
		if e.Flagged {
			flaggedCount++
		}
		if e.Error != "" {
			errorCount++
		}
		if e.TimedOut {
			timeouts++
		}
	}

	header(w, "Audit Summary")
	fmt.Fprintf(w, "  Total events:    %d (%d command, %d file)\n", len(all), types[logger.TypeCommand], types[logger.TypeFile])
	fmt.Fprintf(w, "  ALLOW:           %d\n", counts["ALLOW"])
	fmt.Fprintf(w, "  AUDIT (flagged): %d\n", flaggedCount)
	fmt.Fprintf(w, "  BLOCK:           %d\n", counts["BLOCK"])
	fmt.Fprintf(w, "  Timeouts:        %d\n", timeouts)
	fmt.Fprintf(w, "  Errors:          %d\n", errorCount)
	fmt.Fprintf(w, "  First event:     %s\n", formatTimestamp(all[0].Timestamp))
	fmt.Fprintf(w, "  Last event:      %s\n", formatTimestamp(all[len(all)-1].Timestamp))

	var blocked []logger.AuditEvent
	for _, e := range all {
		if e.Decision == "BLOCK" {
			blocked = append(blocked, e)
		}
	}
	if len(blocked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Recent rejections:")
		limit := len(blocked)
		if limit > 10 {
			limit = 10
		}
		for _, e := range blocked[len(blocked)-limit:] {
			subject := e.Command
			if subject == "" {
				subject = e.Op + " " + e.Path
			}
			fmt.Fprintf(w, "    %s %s\n", styles.Subtle.Render(formatTimestamp(e.Timestamp)), subject)
		}
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
