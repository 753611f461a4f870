package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/djklmr2025/cosmos-den/internal/config"
	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/logger"
	"github.com/djklmr2025/cosmos-den/internal/policy"
	"github.com/djklmr2025/cosmos-den/internal/runner"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Workspace:    t.TempDir(),
		Timeout:      30,
		PolicyPath:   filepath.Join(dir, "policy.yaml"),
		PacksDir:     filepath.Join(dir, "packs"),
		LogPath:      filepath.Join(dir, "audit.jsonl"),
		HistoryLimit: 5,
		LogLevel:     "error",
		ConfigDir:    dir,
	}
}

func TestNew_SharesComponents(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	if _, err := svc.Store.Create("notes.md", "# notes", false); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Store.Tree(".", 1); err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(svc.Navigation.List()) != 1 {
		t.Errorf("tree did not reach the shared navigation history")
	}

	_, err = svc.Runner.Run(context.Background(), runner.Request{Name: "rm", Args: []string{"notes.md"}})
	if fault.KindOf(err) != fault.KindPolicyRejected {
		t.Errorf("rm: %v", err)
	}
	if svc.Executions.Cap() != 5 {
		t.Errorf("history limit not applied: %d", svc.Executions.Cap())
	}

	svc.Close()
	events, err := logger.ReadEvents(cfg.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("expected a create and a rejection in the audit log, got %d", len(events))
	}
}

func TestNew_PolicyFileAndPacks(t *testing.T) {
	cfg := testConfig(t)
	cfg.AllowedExtensions = []string{"proto"}
	policyYAML := "version: \"2\"\nallow:\n  make: []\ndeny:\n  - curl\nextensions:\n  - .lock\n"
	if err := os.WriteFile(cfg.PolicyPath, []byte(policyYAML), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(cfg.PacksDir, 0700); err != nil {
		t.Fatal(err)
	}
	packYAML := "name: go\nallow:\n  go: [build, test]\n"
	if err := os.WriteFile(filepath.Join(cfg.PacksDir, "go.yaml"), []byte(packYAML), 0600); err != nil {
		t.Fatal(err)
	}

	svc, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	tests := []struct {
		name string
		args []string
		want policy.Decision
	}{
		{"make", []string{"all"}, policy.DecisionAllow},
		{"go", []string{"test"}, policy.DecisionAllow},
		{"go", []string{"run"}, policy.DecisionBlock},
		{"curl", nil, policy.DecisionBlock},
		{"rm", nil, policy.DecisionBlock},
	}
	for _, tt := range tests {
		if got := svc.Gate.Check(tt.name, tt.args).Decision; got != tt.want {
			t.Errorf("%s %v: %s, want %s", tt.name, tt.args, got, tt.want)
		}
	}

	for _, ext := range []string{".lock", ".proto", ".py"} {
		if !svc.Extensions.Allowed(ext) {
			t.Errorf("extension %s not allowed", ext)
		}
	}
	if len(svc.Packs) != 1 || !svc.Packs[0].Enabled {
		t.Errorf("packs = %+v", svc.Packs)
	}
}

func TestNew_ForbiddenWorkspace(t *testing.T) {
	cfg := testConfig(t)
	cfg.ForbiddenPaths = []string{filepath.Dir(cfg.Workspace)}
	if _, err := New(cfg, logger.Discard()); err == nil {
		t.Fatal("expected workspace inside a forbidden path to fail")
	}
}

func TestNew_BadPolicyFile(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.PolicyPath, []byte("allow: [not, a, map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg, logger.Discard()); err == nil {
		t.Fatal("expected malformed policy to fail")
	}
}

func TestState_SurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Store.Mkdir("docs"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Store.AddFavorite("docs"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Store.Tree("docs", 1); err != nil {
		t.Fatal(err)
	}
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	other := testConfig(t)
	other.ConfigDir = cfg.ConfigDir
	svc2, err := New(other, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if got := svc2.Store.Favorites(); len(got) != 0 {
		t.Errorf("favorites leaked into another workspace: %v", got)
	}
	svc2.Close()

	svc3, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer svc3.Close()
	if got := svc3.Store.Favorites(); len(got) != 1 || got[0] != "docs" {
		t.Errorf("favorites = %v", got)
	}
	if got := svc3.Store.NavigationHistory(); len(got) != 1 || got[0].Path != "docs" {
		t.Errorf("navigation = %+v", got)
	}
}
