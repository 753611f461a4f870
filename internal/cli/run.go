package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/approval"
	"github.com/djklmr2025/cosmos-den/internal/policy"
	"github.com/djklmr2025/cosmos-den/internal/redact"
	"github.com/djklmr2025/cosmos-den/internal/runner"
)

var (
	runCwd     string
	runTimeout time.Duration
	runEnv     []string
	runTrack   bool
	runYes     bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command> [args...]",
	Short: "Run an allow-listed command in the workspace",
	Long: `Run a command through the command gate. The command and its arguments
follow --; they are passed to the program as-is, never through a shell.

Flagged (AUDIT) commands ask for confirmation on an interactive terminal
unless --yes is given. The exit status of the command becomes the exit
status of cosmosden; a timeout exits with 124.

Example:
  cosmosden run -- git status
  cosmosden run --cwd app --timeout 10m -- npm install lodash`,
	RunE: runCommand,
}

func init() {
	runCmd.Flags().StringVar(&runCwd, "cwd", "", "Working directory relative to the workspace root")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Kill the command after this long (default from config)")
	runCmd.Flags().StringArrayVarP(&runEnv, "env", "e", nil, "Extra environment variable KEY=VALUE (repeatable)")
	runCmd.Flags().BoolVar(&runTrack, "track-changes", false, "Report files added, modified or deleted by the command")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Run flagged commands without asking")
	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided. Usage: cosmosden run -- <command> [args...]")
	}
	env, err := parseEnv(runEnv)
	if err != nil {
		return err
	}

	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	eval := svc.Runner.Check(args[0], args[1:], runCwd)
	if eval.Decision == policy.DecisionAudit && !runYes && approval.IsInteractive() {
		answer := approval.Terminal().Ask(approval.Prompt{
			Title:          "FLAGGED COMMAND",
			Subject:        redact.Command(args[0], args[1:]),
			TriggeredRules: eval.TriggeredRules,
			Reasons:        eval.Reasons,
		})
		if !answer.Approved {
			fmt.Fprintln(cmd.ErrOrStderr(), "Command not run.")
			return &exitError{code: 1}
		}
	}

	res, runErr := svc.Runner.Run(cmd.Context(), runner.Request{
		Name:         args[0],
		Args:         args[1:],
		Dir:          runCwd,
		Timeout:      runTimeout,
		Env:          env,
		TrackChanges: runTrack,
	})

	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		printRunResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
	}

	if runErr != nil {
		return runErr
	}
	if res.ExitCode != 0 {
		return &exitError{code: res.ExitCode}
	}
	return nil
}

func printRunResult(stdout, stderr io.Writer, res runner.Result) {
	io.WriteString(stdout, res.Stdout)
	io.WriteString(stderr, res.Stderr)
	if res.Decision == policy.DecisionAudit {
		fmt.Fprintf(stderr, "%s flagged: %s\n", decisionBadge(string(res.Decision)), strings.Join(res.TriggeredRules, ", "))
	}
	if res.TimedOut {
		fmt.Fprintln(stderr, styles.Warning.Render(fmt.Sprintf("timed out after %s", res.Duration)))
	}
	if len(res.Changes) > 0 || runTrack {
		fmt.Fprint(stderr, runner.Summarize(res.Changes))
		if len(res.Changes) == 0 {
			fmt.Fprintln(stderr)
		}
	}
}

// parseEnv turns KEY=VALUE pairs into a map. Later pairs win.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("invalid --env %q, want KEY=VALUE", kv)
		}
		env[key] = value
	}
	return env, nil
}
