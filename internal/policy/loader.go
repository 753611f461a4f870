package policy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads a policy file and merges it over DefaultPolicy. A missing file
// yields the default policy unchanged.
func Load(path string) (*Policy, error) {
	base := DefaultPolicy()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, err
	}

	var overlay Policy
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}

	merge(base, &overlay)
	if overlay.Version != "" {
		base.Version = overlay.Version
	}
	return base, nil
}

// merge folds overlay into target. Allow entries replace the target's entry
// for the same command; deny names and extensions are unioned. There is no
// way to remove a deny entry from an overlay. Empty strings are dropped from
// allow lists, and an entry made only of empty strings is ignored, since an
// empty list would admit any argument.
func merge(target, overlay *Policy) {
	if target.Allow == nil {
		target.Allow = map[string][]string{}
	}
	for name, args := range overlay.Allow {
		kept := union(nil, args)
		if len(kept) == 0 && len(args) > 0 {
			continue
		}
		target.Allow[name] = kept
	}
	target.Deny = union(target.Deny, overlay.Deny)
	target.Extensions = union(target.Extensions, overlay.Extensions)
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func clonePolicy(p *Policy) *Policy {
	clone := &Policy{
		Version:    p.Version,
		Allow:      make(map[string][]string, len(p.Allow)),
		Deny:       append([]string(nil), p.Deny...),
		Extensions: append([]string(nil), p.Extensions...),
	}
	for name, args := range p.Allow {
		clone.Allow[name] = append([]string(nil), args...)
	}
	return clone
}

// CommandNames returns the allow-listed command names in sorted order.
func (p *Policy) CommandNames() []string {
	names := make([]string, 0, len(p.Allow))
	for name := range p.Allow {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultPolicy is the built-in command table: enough to scaffold and build
// Node, Python and Firebase projects and drive git, nothing that deletes,
// formats, reboots or kills.
func DefaultPolicy() *Policy {
	return &Policy{
		Version: "1",
		Allow: map[string][]string{
			"npm":      {"install", "run", "start", "build", "test", "init", "-v", "--version"},
			"npx":      {"create-react-app", "create-next-app", "@vue/cli", "degit", "create-vue", "vite"},
			"node":     {"-v", "--version", "-e"},
			"python":   {"-m", "-c", "-V", "--version", "manage.py", "venv"},
			"pip":      {"install", "list", "show", "freeze"},
			"git":      {"init", "add", "commit", "push", "pull", "status", "log", "clone", "branch", "--version", "checkout"},
			"firebase": {"init", "deploy", "serve", "login", "logout", "emulators:start", "--version"},
			"ls":       {},
			"dir":      {},
			"pwd":      {},
			"cd":       {},
			"cat":      {},
			"type":     {},
			"find":     {},
			"grep":     {},
			"findstr":  {},
			"code":     {},
			"explorer": {},
		},
		Deny: []string{
			"rm", "del", "rmdir", "format", "shutdown", "reboot",
			"dd", "mkfs", "fdisk", "kill", "killall",
		},
	}
}
