package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/djklmr2025/cosmos-den/internal/config"
	"github.com/djklmr2025/cosmos-den/internal/core"
	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/logger"
)

var (
	configFile string
	workspace  string
	policyPath string
	logPath    string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "cosmosden",
	Short: "Cosmos Den - confined file and command execution for agents",
	Long: `Cosmos Den runs file operations and allow-listed commands inside one
workspace directory. Every path is resolved and checked against the
workspace root before any I/O; every command passes a deny list and an
allow table before it is spawned, without a shell, under a timeout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: ~/.cosmosden/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to command policy YAML (default: ~/.cosmosden/policy.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.cosmosden/audit.jsonl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// Execute runs the command tree. Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, styles.error("Error: ")+describe(err))
		}
	}
	return err
}

// exitError carries a process exit status without a message of its own.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// ExitCode maps an error from Execute to a process exit status, following
// shell conventions for timeouts and commands that could not run.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch fault.KindOf(err) {
	case fault.KindTimeout:
		return 124
	case fault.KindPolicyRejected:
		return 126
	case fault.KindProcessSpawnFailed:
		return 127
	case fault.KindCanceled:
		return 130
	}
	return 1
}

func describe(err error) string {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return fault.Message(err)
	}
	return err.Error()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: configFile,
		Workspace:  workspace,
		PolicyPath: policyPath,
		LogPath:    logPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openService() (*core.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return core.New(cfg, logger.NewDiagnostic(os.Stderr, level))
}
