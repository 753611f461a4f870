package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	configDir := t.TempDir()
	workspace := t.TempDir()

	cfg, err := Load(Options{ConfigDir: configDir, Workspace: workspace})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultTimeout() != 300*time.Second {
		t.Errorf("DefaultTimeout = %v", cfg.DefaultTimeout())
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if cfg.PolicyPath != filepath.Join(configDir, DefaultPolicyFile) {
		t.Errorf("PolicyPath = %q", cfg.PolicyPath)
	}
	if cfg.LogPath != filepath.Join(configDir, DefaultLogFile) {
		t.Errorf("LogPath = %q", cfg.LogPath)
	}
	if cfg.Workspace != workspace {
		t.Errorf("Workspace = %q", cfg.Workspace)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	configDir := t.TempDir()
	workspace := t.TempDir()
	yaml := "workspace: " + workspace + "\n" +
		"timeout: 60\n" +
		"allowed_extensions: [.rs, .lua]\n" +
		"forbidden_paths: [/srv/secrets]\n" +
		"track_changes: true\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COSMOSDEN_HISTORY_LIMIT", "7")

	cfg, err := Load(Options{ConfigDir: configDir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 60 || cfg.HistoryLimit != 7 || !cfg.TrackChanges {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.AllowedExtensions) != 2 || cfg.AllowedExtensions[0] != ".rs" {
		t.Errorf("AllowedExtensions = %v", cfg.AllowedExtensions)
	}
	if len(cfg.ForbiddenPaths) != 1 || cfg.ForbiddenPaths[0] != "/srv/secrets" {
		t.Errorf("ForbiddenPaths = %v", cfg.ForbiddenPaths)
	}
}

func TestLoad_Invalid(t *testing.T) {
	configDir := t.TempDir()
	file := filepath.Join(t.TempDir(), "workspace.txt")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts Options
		env  map[string]string
	}{
		{"missing workspace", Options{ConfigDir: configDir, Workspace: filepath.Join(configDir, "nope")}, nil},
		{"workspace is a file", Options{ConfigDir: configDir, Workspace: file}, nil},
		{"zero timeout", Options{ConfigDir: configDir, Workspace: configDir}, map[string]string{"COSMOSDEN_TIMEOUT": "0"}},
		{"relative forbidden path", Options{ConfigDir: configDir, Workspace: configDir}, map[string]string{"COSMOSDEN_FORBIDDEN_PATHS": "secrets"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
