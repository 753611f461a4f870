package policy

type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionAudit Decision = "AUDIT"
	DecisionBlock Decision = "BLOCK"
)

// Policy is the command and extension policy as it appears in policy.yaml.
//
// Allow maps a bare command name to the first arguments it may be invoked
// with; an empty list admits any arguments. Deny always wins over Allow.
type Policy struct {
	Version    string              `yaml:"version"`
	Allow      map[string][]string `yaml:"allow"`
	Deny       []string            `yaml:"deny"`
	Extensions []string            `yaml:"extensions"`
}

type EvalResult struct {
	Decision       Decision
	TriggeredRules []string
	Reasons        []string
	Explanation    string
}

// Allowed reports whether the command may be spawned. AUDIT results are
// allowed but must be flagged in the audit trail.
func (r EvalResult) Allowed() bool {
	return r.Decision == DecisionAllow || r.Decision == DecisionAudit
}

// Flagged reports whether the result deserves a reviewer's attention.
func (r EvalResult) Flagged() bool {
	return r.Decision != DecisionAllow
}

// Flag raises an ALLOW to AUDIT and records why. BLOCK stays BLOCK.
func (r EvalResult) Flag(rule, reason string) EvalResult {
	r.TriggeredRules = append([]string(nil), r.TriggeredRules...)
	r.Reasons = append([]string(nil), r.Reasons...)
	return finish(audit(r, rule, reason))
}
