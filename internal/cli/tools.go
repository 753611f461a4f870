package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/core"
	"github.com/djklmr2025/cosmos-den/internal/runner"
)

var toolsCmd = &cobra.Command{
	Use:   "tools [tool...]",
	Short: "Report which toolchains are installed",
	Long: `Run "<tool> --version" for each tool through the command gate and report
whether it succeeded. Without arguments node, npm, python, git and firebase
are checked.`,
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		statuses := svc.Runner.CheckTools(cmd.Context(), args...)
		return render(cmd, statuses, func(w io.Writer) { printToolStatuses(w, statuses) })
	}),
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func printToolStatuses(w io.Writer, statuses []runner.ToolStatus) {
	for _, s := range statuses {
		if s.Installed {
			fmt.Fprintf(w, "  %s  %-10s %s\n", okBadge(true), s.Tool, styles.Subtle.Render(s.Version))
		} else {
			fmt.Fprintf(w, "  %s  %-10s %s\n", styles.Warning.Render("--  "), s.Tool, styles.Subtle.Render(s.Error))
		}
	}
}
