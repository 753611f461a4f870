package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPacks(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("go.yaml", "name: go-toolchain\ndescription: Go builds\nallow:\n  go: [build, test, mod]\n")
	write("_docker.yaml", "name: docker\nallow:\n  docker: [build]\n")
	write("strict.yml", "deny: [npx]\n")
	write("broken.yaml", "allow: [")
	write("notes.txt", "ignored")

	base := DefaultPolicy()
	merged, infos, err := LoadPacks(dir, base)
	if err != nil {
		t.Fatalf("LoadPacks: %v", err)
	}
	if len(infos) != 4 {
		t.Fatalf("got %d pack infos, want 4", len(infos))
	}

	gate := NewGate(merged)
	if r := gate.Check("go", []string{"test", "./..."}); r.Decision != DecisionAllow {
		t.Errorf("go test: %s", r.Decision)
	}
	if r := gate.Check("docker", []string{"build"}); r.Decision != DecisionBlock {
		t.Errorf("disabled pack applied: %s", r.Decision)
	}
	if r := gate.Check("npx", []string{"vite"}); r.Decision != DecisionBlock {
		t.Errorf("pack deny not applied: %s", r.Decision)
	}
	if _, ok := base.Allow["go"]; ok {
		t.Error("base policy mutated")
	}

	for _, info := range infos {
		if info.Name == "broken" && info.Error == "" {
			t.Error("broken pack should report an error")
		}
		if info.Name == "docker" && info.Enabled {
			t.Error("underscore pack should be disabled")
		}
	}
}

func TestLoadPacks_MissingDir(t *testing.T) {
	base := DefaultPolicy()
	got, infos, err := LoadPacks(filepath.Join(t.TempDir(), "packs"), base)
	if err != nil || got != base || infos != nil {
		t.Fatalf("unexpected result: %v %v %v", got, infos, err)
	}
}
