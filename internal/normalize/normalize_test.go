package normalize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDescribe_RelativePathExpansion(t *testing.T) {
	inv := Describe("cat", []string{"../secrets.txt"}, "/home/user/project")

	expected := "/home/user/secrets.txt"
	if len(inv.Paths) != 1 || inv.Paths[0] != expected {
		t.Errorf("expected path %q, got %v", expected, inv.Paths)
	}
}

func TestDescribe_TildeExpansion(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	inv := Describe("cat", []string{"~/.ssh/id_rsa"}, "/tmp")

	expected := filepath.Join(homeDir, ".ssh/id_rsa")
	if len(inv.Paths) != 1 || inv.Paths[0] != expected {
		t.Errorf("expected path %q, got %v", expected, inv.Paths)
	}
}

func TestDescribe_FlagValuePath(t *testing.T) {
	inv := Describe("npm", []string{"install", "--prefix=../../elsewhere"}, "/ws/app")
	if len(inv.Paths) != 1 || inv.Paths[0] != "/elsewhere" {
		t.Errorf("expected flag value to be treated as path, got %v", inv.Paths)
	}
}

func TestDescribe_Domains(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"npx", []string{"degit", "https://github.com/sveltejs/template"}, "github.com"},
		{"git", []string{"clone", "https://gitlab.com/org/repo.git"}, "gitlab.com"},
		{"git", []string{"clone", "git@github.com:org/repo.git"}, "github.com"},
	}

	for _, tt := range tests {
		inv := Describe(tt.name, tt.args, "/tmp")
		if len(inv.Domains) != 1 || inv.Domains[0] != tt.want {
			t.Errorf("%s %v: expected domain %q, got %v", tt.name, tt.args, tt.want, inv.Domains)
		}
		for _, p := range inv.Paths {
			if p == "/tmp/git@github.com:org/repo.git" {
				t.Errorf("ssh remote treated as path")
			}
		}
	}
}

func TestDescribe_Name(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"ls", "ls"},
		{"/usr/bin/cat", "cat"},
		{"./script.sh", "script.sh"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Describe(tt.name, nil, "/tmp").Name; got != tt.expected {
			t.Errorf("Describe(%q).Name = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestDescribe_IgnoresFlags(t *testing.T) {
	inv := Describe("git", []string{"add", "-A", "--verbose", "./src"}, "/tmp")

	if len(inv.Paths) != 1 {
		t.Errorf("expected 1 path, got %d: %v", len(inv.Paths), inv.Paths)
	}
}
