package policy

import (
	"strings"
	"testing"
)

func TestGate_Check(t *testing.T) {
	gate := NewGate(DefaultPolicy())

	tests := []struct {
		name     string
		command  string
		args     []string
		decision Decision
		rule     string
	}{
		{"deny list", "rm", []string{"-rf", "/"}, DecisionBlock, "deny-list"},
		{"deny list case-insensitive", "RM", []string{"file"}, DecisionBlock, "deny-list"},
		{"deny list via path", "/bin/rm", []string{"x"}, DecisionBlock, "deny-list"},
		{"windows deny with extension", "shutdown.exe", nil, DecisionBlock, "deny-list"},
		{"unlisted command", "curl", []string{"http://example.com"}, DecisionBlock, "not-allowlisted"},
		{"path-qualified allowed name", "./npm", []string{"install"}, DecisionBlock, "command-path"},
		{"empty command", "  ", nil, DecisionBlock, "empty-command"},
		{"exact first argument", "npm", []string{"install", "react"}, DecisionAllow, ""},
		{"git status", "git", []string{"status"}, DecisionAllow, ""},
		{"unlisted first argument", "git", []string{"reset", "--hard"}, DecisionBlock, "argument-not-allowed"},
		{"missing argument", "npm", nil, DecisionBlock, "missing-argument"},
		{"any arguments", "ls", []string{"-la", "src"}, DecisionAllow, ""},
		{"no arguments on empty list", "pwd", nil, DecisionAllow, ""},
		{"substring match audited", "npx", []string{"create-react-app@5"}, DecisionAudit, "argument-substring-match"},
		{"zero-width in argument", "git", []string{"sta\u200btus"}, DecisionBlock, "unicode-zero-width"},
		{"homoglyph audited", "ls", []string{"\u0441rc"}, DecisionAudit, "unicode-homoglyph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gate.Check(tt.command, tt.args)
			if result.Decision != tt.decision {
				t.Fatalf("Decision = %s, want %s\n%s", result.Decision, tt.decision, result.Explanation)
			}
			if tt.rule == "" {
				if len(result.TriggeredRules) != 0 {
					t.Errorf("unexpected rules %v", result.TriggeredRules)
				}
				return
			}
			found := false
			for _, r := range result.TriggeredRules {
				if r == tt.rule {
					found = true
				}
			}
			if !found {
				t.Errorf("rules %v do not include %q", result.TriggeredRules, tt.rule)
			}
		})
	}
}

func TestGate_DenyBeatsAllow(t *testing.T) {
	p := DefaultPolicy()
	p.Allow["rm"] = nil
	p.Allow["kill"] = []string{"-9"}
	gate := NewGate(p)

	for _, args := range [][]string{nil, {"-9"}, {"-rf", "/"}} {
		if r := gate.Check("rm", args); r.Decision != DecisionBlock {
			t.Errorf("rm %v: got %s", args, r.Decision)
		}
		if r := gate.Check("kill", args); r.Decision != DecisionBlock {
			t.Errorf("kill %v: got %s", args, r.Decision)
		}
	}
}

func TestEvalResult_Explanation(t *testing.T) {
	r := NewGate(nil).Check("rm", []string{"-rf", "/"})
	if !strings.Contains(r.Explanation, "Decision: BLOCK") || !strings.Contains(r.Explanation, "deny-list") {
		t.Errorf("unexpected explanation:\n%s", r.Explanation)
	}
	if r.Allowed() {
		t.Error("blocked result reported as allowed")
	}
}
