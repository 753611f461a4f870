package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/policy"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage policy packs",
	Long: `Manage command policy packs.

A pack is a YAML fragment with the same allow, deny and extensions keys as
the policy file, for example a toolchain that is not allowed by default.
Packs live in ~/.cosmosden/packs/ and are merged over the policy at startup.
A pack whose file name starts with an underscore is disabled. Packs can add
deny entries but never remove them.

Examples:
  cosmosden pack list            # List installed packs
  cosmosden pack enable golang   # Enable a pack
  cosmosden pack disable golang  # Disable a pack
  cosmosden pack show golang     # Show pack contents`,
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed policy packs",
	RunE:  packList,
}

var packEnableCmd = &cobra.Command{
	Use:   "enable <pack-name>",
	Short: "Enable a disabled policy pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packEnable,
}

var packDisableCmd = &cobra.Command{
	Use:   "disable <pack-name>",
	Short: "Disable a policy pack (prefix with underscore)",
	Args:  cobra.ExactArgs(1),
	RunE:  packDisable,
}

var packShowCmd = &cobra.Command{
	Use:   "show <pack-name>",
	Short: "Show the contents of a policy pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packShow,
}

func init() {
	packCmd.AddCommand(packListCmd, packEnableCmd, packDisableCmd, packShowCmd)
	rootCmd.AddCommand(packCmd)
}

func packsDir() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.PacksDir, 0700); err != nil {
		return "", err
	}
	return cfg.PacksDir, nil
}

func packList(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}

	_, infos, err := policy.LoadPacks(dir, policy.DefaultPolicy())
	if err != nil {
		return fmt.Errorf("failed to load packs: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "No policy packs installed.")
		fmt.Fprintf(out, "\nTo install packs, copy YAML files to: %s\n", dir)
		return nil
	}

	header(out, "Installed Policy Packs")
	for _, info := range infos {
		state := okBadge(true)
		if !info.Enabled {
			state = styles.Subtle.Render("off ")
		}
		fmt.Fprintf(out, "  %s  %-25s %s\n", state, info.Name, info.Description)
		switch {
		case info.Error != "":
			fmt.Fprintf(out, "        %s\n", styles.Err.Render(info.Error))
		case info.Version != "":
			fmt.Fprintf(out, "        v%s  (%d commands)\n", info.Version, info.Commands)
		}
	}
	fmt.Fprintln(out, styles.Border.Render(strings.Repeat("─", 56)))
	fmt.Fprintf(out, "Packs directory: %s\n", dir)
	return nil
}

func packEnable(cmd *cobra.Command, args []string) error {
	return setPackEnabled(cmd, args[0], true)
}

func packDisable(cmd *cobra.Command, args []string) error {
	return setPackEnabled(cmd, args[0], false)
}

// setPackEnabled renames a pack file between name.yaml and _name.yaml.
func setPackEnabled(cmd *cobra.Command, name string, enable bool) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}

	on, off := packFiles(dir, name)
	from, to, verb := off, on, "enabled"
	if !enable {
		from, to, verb = on, off, "disabled"
	}

	out := cmd.OutOrStdout()
	switch {
	case fileExists(from):
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("pack %s: %w", name, err)
		}
		fmt.Fprintf(out, "%s pack %s %s\n", okBadge(true), name, verb)
	case fileExists(to):
		fmt.Fprintf(out, "Pack %s is already %s.\n", name, verb)
	default:
		return fmt.Errorf("pack %q not found in %s", name, dir)
	}
	return nil
}

func packShow(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}

	name := args[0]
	on, off := packFiles(dir, name)
	path := on
	if !fileExists(path) {
		path = off
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("pack %q not found in %s", name, dir)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Subtle.Render("# "+path))
	fmt.Fprint(out, string(data))
	return nil
}

func packFiles(dir, name string) (enabled, disabled string) {
	return filepath.Join(dir, name+".yaml"), filepath.Join(dir, "_"+name+".yaml")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
