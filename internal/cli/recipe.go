package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/action"
	"github.com/djklmr2025/cosmos-den/internal/core"
)

var recipeContinue bool

var recipeCmd = &cobra.Command{
	Use:   "recipe <file>",
	Short: "Run a JSONC recipe of actions step by step",
	Long: `Run the steps of a recipe file in order. A recipe looks like

  {
    "name": "python-app",
    // stop at the first failure unless true
    "continue_on_error": false,
    "steps": [
      {"action": "file_mkdir", "params": {"path": "app"}},
      {"action": "file_create", "params": {"path": "app/main.py", "content": "print('hi')\n"}},
      {"action": "git_execute", "params": {"command": "init"}},
    ],
  }

Exits 1 when any step fails.`,
	Args: cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		r, err := action.ReadRecipe(args[0])
		if err != nil {
			return err
		}
		if recipeContinue {
			r.ContinueOnError = true
		}

		res := action.New(svc).RunRecipe(cmd.Context(), r)
		if err := render(cmd, res, func(w io.Writer) { printRecipeResult(w, res) }); err != nil {
			return err
		}
		if !res.OK {
			return &exitError{code: 1}
		}
		return nil
	}),
}

func init() {
	recipeCmd.Flags().BoolVar(&recipeContinue, "continue-on-error", false, "Run every step even after a failure")
	rootCmd.AddCommand(recipeCmd)
}

func printRecipeResult(w io.Writer, res action.RecipeResult) {
	header(w, "Recipe "+res.Name)
	for _, step := range res.Steps {
		line := fmt.Sprintf("  %s  %2d. %s", okBadge(step.Result.OK), step.Index, step.Action)
		if !step.Result.OK {
			line += "  " + styles.Subtle.Render(step.Result.Error)
		}
		fmt.Fprintln(w, line)
	}
	if res.Skipped > 0 {
		fmt.Fprintln(w, styles.Subtle.Render(fmt.Sprintf("  %d step(s) skipped", res.Skipped)))
	}
	if res.OK {
		fmt.Fprintln(w, styles.Success.Render(fmt.Sprintf("%d step(s) completed", len(res.Steps))))
	} else {
		fmt.Fprintln(w, styles.Err.Render("recipe failed"))
	}
}
