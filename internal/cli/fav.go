package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/core"
)

var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Bookmark workspace paths",
	Long: `Keep a list of favorite paths for the workspace. Favorites are saved in
~/.cosmosden/state.json per workspace root.`,
}

var favAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add an existing path to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.AddFavorite(args[0])
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			if res.Changed {
				fmt.Fprintf(w, "added %s\n", res.Path)
			} else {
				fmt.Fprintf(w, "%s is already a favorite\n", res.Path)
			}
		})
	}),
}

var favRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a path from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		res, err := svc.Store.RemoveFavorite(args[0])
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			if res.Changed {
				fmt.Fprintf(w, "removed %s\n", res.Path)
			} else {
				fmt.Fprintf(w, "%s was not a favorite\n", res.Path)
			}
		})
	}),
}

var favLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List favorites",
	Args:  cobra.NoArgs,
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		favorites := svc.Store.Favorites()
		return render(cmd, favorites, func(w io.Writer) {
			if len(favorites) == 0 {
				fmt.Fprintln(w, "No favorites.")
				return
			}
			for _, p := range favorites {
				fmt.Fprintf(w, "  ★ %s\n", p)
			}
		})
	}),
}

func init() {
	favCmd.AddCommand(favAddCmd, favRmCmd, favLsCmd)
	rootCmd.AddCommand(favCmd)
}
