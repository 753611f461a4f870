package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/approval"
	"github.com/djklmr2025/cosmos-den/internal/core"
	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/filestore"
)

var (
	filesRecursive bool
	filesAll       bool
	filesContent   string
	filesFrom      string
	filesOverwrite bool
	filesYes       bool
	filesInContent bool
	filesDir       string
	filesDepth     int
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Work with files inside the workspace",
	Long: `List, read, create, update, delete and search files inside the workspace.
Paths are relative to the workspace root; anything resolving outside it is
rejected.

Examples:
  cosmosden files ls -r src
  cosmosden files create app.py --content 'print(1)'
  echo '# notes' | cosmosden files update README.md
  cosmosden files rm old.txt --yes
  cosmosden files search --content 'TODO'`,
}

var filesLsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.List(optionalArg(args), filestore.ListOptions{Recursive: filesRecursive, IncludeHidden: filesAll})
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			for _, e := range res.Entries {
				name := e.Path
				size := humanize.IBytes(uint64(e.Size))
				if e.Type == filestore.TypeDirectory {
					name = styles.Dir.Render(e.Path + "/")
					size = "-"
				}
				fmt.Fprintf(w, "%9s  %s  %s\n", size, styles.Subtle.Render(e.Modified.Format("2006-01-02 15:04")), name)
			}
			fmt.Fprintln(w, styles.Subtle.Render(fmt.Sprintf("%d entries", res.Count)))
		})
	}),
}

var filesCatCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a text file",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.Read(args[0])
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			io.WriteString(w, res.Content)
		})
	}),
}

var filesCreateCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Create a file from --content, --from or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		content, err := readContent(cmd)
		if err != nil {
			return err
		}
		res, err := svc.Store.Create(args[0], content, filesOverwrite)
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			verb := "created"
			if !res.Created {
				verb = "overwrote"
			}
			fmt.Fprintf(w, "%s %s (%s)\n", verb, res.Path, humanize.IBytes(uint64(res.Size)))
		})
	}),
}

var filesUpdateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Replace a file's content, keeping a .bak copy",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		content, err := readContent(cmd)
		if err != nil {
			return err
		}
		res, err := svc.Store.Update(args[0], content)
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			fmt.Fprintf(w, "updated %s (%s), previous content in %s\n", res.Path, humanize.IBytes(uint64(res.Size)), res.Backup)
		})
	}),
}

var filesRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Move a file or directory to the workspace trash",
	Long: `Move a file or directory into .trash under the workspace root. Without
--yes the deletion is confirmed on the terminal; on a non-interactive
terminal it is refused.`,
	Args: cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		if !filesYes {
			if !approval.IsInteractive() {
				return fault.New(fault.KindInvalidRequest, "delete", args[0], "refusing to delete without --yes on a non-interactive terminal")
			}
			answer := approval.Terminal().Ask(approval.Prompt{
				Title:   "DELETE",
				Subject: fmt.Sprintf("Move %s to %s/", args[0], filestore.TrashDir),
			})
			if !answer.Approved {
				fmt.Fprintln(cmd.ErrOrStderr(), "Nothing deleted.")
				return &exitError{code: 1}
			}
		}
		res, err := svc.Store.Delete(args[0], true)
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			fmt.Fprintf(w, "moved %s to %s\n", res.Path, res.TrashPath)
		})
	}),
}

var filesMkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory and any missing parents",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.Mkdir(args[0])
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			if res.Created {
				fmt.Fprintf(w, "created %s/\n", res.Path)
			} else {
				fmt.Fprintf(w, "%s/ already exists\n", res.Path)
			}
		})
	}),
}

var filesSearchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Find files by name glob, or by content with --content",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.Search(args[0], filestore.SearchOptions{Dir: filesDir, InContent: filesInContent})
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			for _, hit := range res.Results {
				fmt.Fprintln(w, styles.Dir.Render(hit.Path))
				for _, m := range hit.Matches {
					fmt.Fprintf(w, "  %s %s\n", styles.Subtle.Render(fmt.Sprintf("%5d:", m.Line)), m.Text)
				}
			}
			summary := fmt.Sprintf("%d matches", res.Count)
			if res.Truncated {
				summary += " (truncated)"
			}
			fmt.Fprintln(w, styles.Subtle.Render(summary))
		})
	}),
}

var filesInfoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show size, times, type and digest of a path",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.Info(args[0])
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			row := func(label, value string) {
				if value != "" {
					fmt.Fprintf(w, "  %-12s %s\n", styles.Subtle.Render(label), value)
				}
			}
			row("Path", res.Path)
			row("Type", res.Type)
			row("Size", fmt.Sprintf("%s (%d bytes)", res.SizeHuman, res.Size))
			row("Created", res.Created.Format("2006-01-02 15:04:05"))
			row("Modified", res.Modified.Format("2006-01-02 15:04:05"))
			row("Extension", res.Extension)
			row("Permissions", res.Permissions)
			if res.Lines != nil {
				row("Lines", fmt.Sprint(*res.Lines))
			}
			if res.Characters != nil {
				row("Characters", fmt.Sprint(*res.Characters))
			}
			row("BLAKE3", res.Digest)
		})
	}),
}

var filesTreeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Show a directory tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		node, err := svc.Store.Tree(optionalArg(args), filesDepth)
		if err != nil {
			return err
		}
		return render(cmd, node, func(w io.Writer) { renderTree(w, node) })
	}),
}

var filesWatchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Check that a file exists and record it as recently visited",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.Watch(args[0])
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			fmt.Fprintf(w, "ready to watch %s\n", res.Path)
		})
	}),
}

var filesRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently visited paths, most recent first",
	Args:  cobra.NoArgs,
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		visits := svc.Store.NavigationHistory()
		return render(cmd, visits, func(w io.Writer) {
			if len(visits) == 0 {
				fmt.Fprintln(w, "No paths visited yet.")
				return
			}
			for _, v := range visits {
				fmt.Fprintf(w, "  %s  %s\n", styles.Subtle.Render(v.At.Local().Format("2006-01-02 15:04")), v.Path)
			}
		})
	}),
}

func init() {
	filesLsCmd.Flags().BoolVarP(&filesRecursive, "recursive", "r", false, "List the whole subtree")
	filesLsCmd.Flags().BoolVarP(&filesAll, "all", "a", false, "Include hidden entries")
	for _, c := range []*cobra.Command{filesCreateCmd, filesUpdateCmd} {
		c.Flags().StringVar(&filesContent, "content", "", "Content to write")
		c.Flags().StringVar(&filesFrom, "from", "", "Read content from this local file")
	}
	filesCreateCmd.Flags().BoolVar(&filesOverwrite, "overwrite", false, "Replace an existing file")
	filesRmCmd.Flags().BoolVarP(&filesYes, "yes", "y", false, "Delete without asking")
	filesSearchCmd.Flags().BoolVar(&filesInContent, "content", false, "Match file contents as a regular expression")
	filesSearchCmd.Flags().StringVar(&filesDir, "dir", "", "Only search below this directory")
	filesTreeCmd.Flags().IntVarP(&filesDepth, "depth", "d", filestore.DefaultTreeDepth, "Maximum depth")

	filesCmd.AddCommand(filesLsCmd, filesCatCmd, filesCreateCmd, filesUpdateCmd, filesRmCmd,
		filesMkdirCmd, filesSearchCmd, filesInfoCmd, filesTreeCmd, filesWatchCmd, filesRecentCmd)
	rootCmd.AddCommand(filesCmd)
}

// withService opens the service for the duration of one command.
func withService(fn func(cmd *cobra.Command, svc *core.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()
		return fn(cmd, svc, args)
	}
}

// render prints v as JSON with --json, otherwise through pretty.
func render(cmd *cobra.Command, v any, pretty func(w io.Writer)) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), v)
	}
	pretty(cmd.OutOrStdout())
	return nil
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// readContent takes --content, then --from, then stdin.
func readContent(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("content") {
		return filesContent, nil
	}
	if filesFrom != "" {
		data, err := os.ReadFile(filesFrom)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", filesFrom, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(data), nil
}
