package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/action"
	"github.com/djklmr2025/cosmos-den/internal/core"
)

var actionData string

var actionCmd = &cobra.Command{
	Use:   "action [FILE|-]",
	Short: "Execute one action request and print the JSON envelope",
	Long: `Read an action request {"action": ..., "params": {...}} from --data, a
file, or stdin, execute it and print {"ok", "error", "kind", "data"}.
Comments and trailing commas are accepted. Exits 1 when ok is false.

  cosmosden action --data '{"action": "file_tree", "params": {"max_depth": 2}}'
  cosmosden action request.jsonc

Actions: file_create file_read file_edit file_delete file_list file_mkdir
file_search file_info file_tree file_watch favorite_add favorite_remove
favorite_list navigation_history command_execute code_execute
package_install git_execute tool_check execution_history`,
	Args: cobra.MaximumNArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		data, err := readRequest(cmd, args)
		if err != nil {
			return err
		}
		env := action.New(svc).DispatchJSON(cmd.Context(), data)
		if err := printJSON(cmd.OutOrStdout(), env); err != nil {
			return err
		}
		if !env.OK {
			return &exitError{code: 1}
		}
		return nil
	}),
}

func init() {
	actionCmd.Flags().StringVarP(&actionData, "data", "d", "", "Request document")
	rootCmd.AddCommand(actionCmd)
}

func readRequest(cmd *cobra.Command, args []string) ([]byte, error) {
	switch {
	case actionData != "":
		return []byte(actionData), nil
	case len(args) == 1 && args[0] != "-":
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", args[0], err)
		}
		return data, nil
	default:
		return io.ReadAll(cmd.InOrStdin())
	}
}
