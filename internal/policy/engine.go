package policy

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/djklmr2025/cosmos-den/internal/unicode"
)

// Gate decides whether a (command, arguments) pair may be spawned. It holds
// no mutable state and is safe for concurrent use.
type Gate struct {
	allow map[string][]string
	deny  map[string]bool
}

func NewGate(p *Policy) *Gate {
	if p == nil {
		p = DefaultPolicy()
	}
	g := &Gate{
		allow: make(map[string][]string, len(p.Allow)),
		deny:  make(map[string]bool, len(p.Deny)),
	}
	for name, args := range p.Allow {
		g.allow[strings.ToLower(name)] = append([]string(nil), args...)
	}
	for _, name := range p.Deny {
		g.deny[strings.ToLower(name)] = true
	}
	return g
}

// Check evaluates name and args. Deny beats allow; the allow table is keyed by
// bare command name and, when non-empty, constrains only the first argument.
func (g *Gate) Check(name string, args []string) EvalResult {
	result := EvalResult{Decision: DecisionAllow}

	if strings.TrimSpace(name) == "" {
		return block(result, "empty-command", "no command given")
	}

	for i, s := range append([]string{name}, args...) {
		scan := unicode.Scan(s)
		if scan.Clean() {
			continue
		}
		where := "command name"
		if i > 0 {
			where = fmt.Sprintf("argument %d", i)
		}
		for _, f := range scan.Findings {
			rule := "unicode-" + f.Category
			if f.Severity == unicode.SeverityBlock {
				return block(result, rule, fmt.Sprintf("%s contains %s", where, f))
			}
			result = audit(result, rule, fmt.Sprintf("%s contains %s", where, f))
		}
	}

	base := strings.ToLower(filepath.Base(name))
	if g.deny[base] || g.deny[strings.TrimSuffix(base, filepath.Ext(base))] {
		return block(result, "deny-list", fmt.Sprintf("%q is on the deny list", base))
	}
	if strings.ContainsAny(name, `/\`) {
		return block(result, "command-path", "commands are resolved from PATH; path-qualified names are not accepted")
	}

	permitted, ok := g.allow[strings.ToLower(name)]
	if !ok {
		return block(result, "not-allowlisted", fmt.Sprintf("%q is not an allowed command", name))
	}
	if len(permitted) == 0 {
		return finish(result)
	}
	if len(args) == 0 {
		return block(result, "missing-argument", fmt.Sprintf("%q requires one of: %s", name, strings.Join(permitted, ", ")))
	}

	first := args[0]
	for _, p := range permitted {
		if first == p {
			return finish(result)
		}
	}
	for _, p := range permitted {
		if p != "" && strings.Contains(first, p) {
			return finish(audit(result, "argument-substring-match",
				fmt.Sprintf("argument %q admitted because it contains %q", first, p)))
		}
	}
	return block(result, "argument-not-allowed", fmt.Sprintf("%q is not a permitted first argument for %q", first, name))
}

// Denied reports whether name is on the deny list, independent of arguments.
func (g *Gate) Denied(name string) bool {
	return g.deny[strings.ToLower(filepath.Base(name))]
}

func block(r EvalResult, rule, reason string) EvalResult {
	r.Decision = DecisionBlock
	r.TriggeredRules = append(r.TriggeredRules, rule)
	r.Reasons = append(r.Reasons, reason)
	return finish(r)
}

func audit(r EvalResult, rule, reason string) EvalResult {
	if r.Decision == DecisionAllow {
		r.Decision = DecisionAudit
	}
	r.TriggeredRules = append(r.TriggeredRules, rule)
	r.Reasons = append(r.Reasons, reason)
	return r
}

func finish(r EvalResult) EvalResult {
	r.Explanation = buildExplanation(r)
	return r
}

func buildExplanation(result EvalResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Decision: %s\n", result.Decision)

	if len(result.TriggeredRules) > 0 {
		fmt.Fprintf(&sb, "Triggered rules: %s\n", strings.Join(result.TriggeredRules, ", "))
	}

	if len(result.Reasons) > 0 {
		sb.WriteString("Reasons:\n")
		for _, reason := range result.Reasons {
			fmt.Fprintf(&sb, "  - %s\n", reason)
		}
	}

	return sb.String()
}
