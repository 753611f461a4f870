package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Allow["git"]) == 0 || len(p.Deny) == 0 {
		t.Errorf("expected default tables, got %+v", p)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	yaml := `version: "2"
allow:
  cargo: [build, test]
  git: [status]
deny:
  - curl
extensions:
  - .rs
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Version != "2" {
		t.Errorf("Version = %q", p.Version)
	}
	if got := p.Allow["git"]; len(got) != 1 || got[0] != "status" {
		t.Errorf("git allow not replaced: %v", got)
	}
	if _, ok := p.Allow["npm"]; !ok {
		t.Error("default npm entry lost")
	}

	gate := NewGate(p)
	if r := gate.Check("cargo", []string{"build"}); r.Decision != DecisionAllow {
		t.Errorf("cargo build: %s", r.Decision)
	}
	if r := gate.Check("curl", nil); r.Decision != DecisionBlock {
		t.Errorf("curl: %s", r.Decision)
	}
	if r := gate.Check("rm", nil); r.Decision != DecisionBlock {
		t.Errorf("rm must stay denied: %s", r.Decision)
	}
	if !NewExtensionPolicy(p.Extensions).AllowsCreate("main.rs") {
		t.Error("extension from policy not applied")
	}
}

func TestLoad_EmptyAllowEntriesIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	yaml := `allow:
  git: [""]
  make: ["", "build"]
  mytool: [""]
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := p.Allow["make"]; len(got) != 1 || got[0] != "build" {
		t.Errorf("make = %q, want [build]", got)
	}
	if _, ok := p.Allow["mytool"]; ok {
		t.Error("entry of only empty strings should not become an allow-anything entry")
	}

	gate := NewGate(p)
	tests := []struct {
		name string
		args []string
		want Decision
	}{
		{"git", []string{"status"}, DecisionAllow},
		{"git", []string{"reset", "--hard"}, DecisionBlock},
		{"make", []string{"clean"}, DecisionBlock},
		{"mytool", []string{"anything"}, DecisionBlock},
	}
	for _, tt := range tests {
		if got := gate.Check(tt.name, tt.args).Decision; got != tt.want {
			t.Errorf("Check(%s %v) = %s, want %s", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("allow: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
