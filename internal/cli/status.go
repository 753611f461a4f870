package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace, policy, packs and audit log status",
	Long: `Show which workspace is active, which policy file and packs are applied,
what the forbidden paths are, and where the audit log lives.

  cosmosden status`,
	RunE: withService(func(cmd *cobra.Command, svc *core.Service, args []string) error {
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), statusReport(svc))
		}
		printStatus(cmd.OutOrStdout(), svc)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type status struct {
	Version        string   `json:"version"`
	ConfigDir      string   `json:"config_dir"`
	Workspace      string   `json:"workspace"`
	Forbidden      []string `json:"forbidden"`
	PolicyFile     string   `json:"policy_file,omitempty"`
	Commands       []string `json:"commands"`
	Denied         []string `json:"denied"`
	Extensions     int      `json:"extensions"`
	PacksInstalled int      `json:"packs_installed"`
	PacksEnabled   int      `json:"packs_enabled"`
	AuditLog       string   `json:"audit_log"`
	AuditLogBytes  int64    `json:"audit_log_bytes"`
	DefaultTimeout string   `json:"default_timeout"`
	TrashEntries   int      `json:"trash_entries"`
}

func statusReport(svc *core.Service) status {
	st := status{
		Version:        Version,
		ConfigDir:      svc.Config.ConfigDir,
		Workspace:      svc.Guard.Root(),
		Forbidden:      svc.Guard.Forbidden(),
		Commands:       svc.Policy.CommandNames(),
		Denied:         append([]string(nil), svc.Policy.Deny...),
		Extensions:     len(svc.Extensions.List()),
		PacksInstalled: len(svc.Packs),
		AuditLog:       svc.Audit.Path(),
		DefaultTimeout: svc.Config.DefaultTimeout().String(),
	}
	sort.Strings(st.Denied)
	if _, err := os.Stat(svc.Config.PolicyPath); err == nil {
		st.PolicyFile = svc.Config.PolicyPath
	}
	for _, p := range svc.Packs {
		if p.Enabled {
			st.PacksEnabled++
		}
	}
	if info, err := os.Stat(st.AuditLog); err == nil {
		st.AuditLogBytes = info.Size()
	}
	if entries, err := svc.Store.TrashManifest(); err == nil {
		st.TrashEntries = len(entries)
	}
	return st
}

func printStatus(w io.Writer, svc *core.Service) {
	st := statusReport(svc)
	row := func(label, value string) {
		fmt.Fprintf(w, "  %-11s %s\n", label+":", value)
	}

	header(w, "Cosmos Den Status")
	binPath, err := os.Executable()
	if err != nil {
		binPath = "unknown"
	}
	row("Binary", fmt.Sprintf("%s (%s)", binPath, st.Version))
	row("Config", st.ConfigDir)
	fmt.Fprintln(w)

	section(w, "Workspace")
	row("Root", st.Workspace)
	row("Timeout", st.DefaultTimeout)
	row("Trash", fmt.Sprintf("%d item(s) in .trash", st.TrashEntries))
	row("Forbidden", strings.Join(st.Forbidden, ", "))
	fmt.Fprintln(w)

	section(w, "Policy")
	if st.PolicyFile != "" {
		row("File", st.PolicyFile)
	} else {
		row("File", styles.Subtle.Render("using built-in defaults (no custom file)"))
	}
	row("Allowed", fmt.Sprintf("%d commands: %s", len(st.Commands), strings.Join(st.Commands, ", ")))
	row("Denied", strings.Join(st.Denied, ", "))
	row("Extensions", fmt.Sprintf("%d suffixes", st.Extensions))
	if st.PacksInstalled > 0 {
		row("Packs", fmt.Sprintf("%d installed, %d enabled", st.PacksInstalled, st.PacksEnabled))
	} else {
		row("Packs", styles.Subtle.Render("none installed"))
	}
	fmt.Fprintln(w)

	section(w, "Audit Log")
	if st.AuditLogBytes == 0 {
		row("Path", st.AuditLog+styles.Subtle.Render(" (empty, starts on first event)"))
	} else {
		row("Path", fmt.Sprintf("%s (%s)", st.AuditLog, humanize.IBytes(uint64(st.AuditLogBytes))))
	}
}
