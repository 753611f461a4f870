// Package config loads the startup configuration: workspace root, default
// process timeout, extra forbidden paths and extensions, and where the
// policy file and audit log live.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".cosmosden"
	DefaultPolicyFile = "policy.yaml"
	DefaultPacksDir   = "packs"
	DefaultLogFile    = "audit.jsonl"

	ConfigFileName = "config"
	ConfigFileType = "yaml"
	EnvPrefix      = "COSMOSDEN"
)

type Config struct {
	Workspace         string   `mapstructure:"workspace"`
	Timeout           int      `mapstructure:"timeout"`
	ForbiddenPaths    []string `mapstructure:"forbidden_paths"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	PolicyPath        string   `mapstructure:"policy"`
	PacksDir          string   `mapstructure:"packs"`
	LogPath           string   `mapstructure:"log"`
	HistoryLimit      int      `mapstructure:"history_limit"`
	LogLevel          string   `mapstructure:"log_level"`
	TrackChanges      bool     `mapstructure:"track_changes"`

	// ConfigDir is where the defaults above were resolved from.
	ConfigDir string `mapstructure:"-"`
}

// Options carries command-line overrides. Empty fields leave the file,
// environment or default value in place.
type Options struct {
	ConfigFile string
	ConfigDir  string
	Workspace  string
	PolicyPath string
	LogPath    string
}

// DefaultTimeout is the process timeout used when a call does not set one.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load reads config.yaml from the config directory (or opts.ConfigFile),
// applies COSMOSDEN_* environment overrides and then opts, and validates
// the result. A missing config file is not an error.
func Load(opts Options) (*Config, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, DefaultConfigDir)
	}
	if err := ensureDir(configDir); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(configDir)
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("workspace", cwd)
	v.SetDefault("timeout", 300)
	v.SetDefault("forbidden_paths", []string{})
	v.SetDefault("allowed_extensions", []string{})
	v.SetDefault("policy", filepath.Join(configDir, DefaultPolicyFile))
	v.SetDefault("packs", filepath.Join(configDir, DefaultPacksDir))
	v.SetDefault("log", filepath.Join(configDir, DefaultLogFile))
	v.SetDefault("history_limit", 50)
	v.SetDefault("log_level", "info")
	v.SetDefault("track_changes", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if opts.ConfigFile == "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigDir = configDir

	if opts.Workspace != "" {
		cfg.Workspace = opts.Workspace
	}
	if opts.PolicyPath != "" {
		cfg.PolicyPath = opts.PolicyPath
	}
	if opts.LogPath != "" {
		cfg.LogPath = opts.LogPath
	}

	cfg.Workspace = expandHome(cfg.Workspace)
	cfg.PolicyPath = expandHome(cfg.PolicyPath)
	cfg.PacksDir = expandHome(cfg.PacksDir)
	cfg.LogPath = expandHome(cfg.LogPath)
	for i, p := range cfg.ForbiddenPaths {
		cfg.ForbiddenPaths[i] = expandHome(p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace is not set")
	}
	info, err := os.Stat(c.Workspace)
	if err != nil {
		return fmt.Errorf("workspace %s: %w", c.Workspace, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s is not a directory", c.Workspace)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	for _, p := range c.ForbiddenPaths {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("forbidden path %q must be absolute", p)
		}
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
