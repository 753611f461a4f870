// Package pathguard decides whether a requested path may be touched at all.
//
// Every candidate is resolved to its real location (symlinks followed, "."
// and ".." collapsed) before it is compared against the workspace root and
// the forbidden prefixes, so a link inside the workspace that points outside
// it is rejected just like "../../etc/passwd".
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/djklmr2025/cosmos-den/internal/unicode"
)

var errDanglingLink = errors.New("dangling symlink")

// Target is an accepted path.
type Target struct {
	// Abs is the resolved absolute path. All I/O must use Abs, never the
	// caller's original string.
	Abs string
	// Rel is Abs relative to the workspace root in slash form; "." for the
	// root itself.
	Rel string
}

// IsRoot reports whether the target is the workspace root.
func (t Target) IsRoot() bool { return t.Rel == "." }

// Guard validates paths against one workspace root. It is immutable after
// New and safe for concurrent use.
type Guard struct {
	root      string
	forbidden []string
	logger    *slog.Logger
}

// DefaultForbidden returns the system and credential directories that are
// never accessible, whatever the workspace root.
func DefaultForbidden() []string {
	paths := []string{"/etc", "/sys", "/proc", "/dev", "/boot"}
	if runtime.GOOS == "windows" {
		paths = append(paths, `C:\Windows\System32`)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		for _, dir := range []string{".ssh", ".aws", ".gnupg", ".kube", filepath.Join(".config", "gcloud")} {
			paths = append(paths, filepath.Join(home, dir))
		}
	}
	return paths
}

// New resolves root and prepares the forbidden set. Each forbidden entry is
// kept in both its lexical and its resolved form so a symlinked system
// directory cannot slip through either way.
func New(root string, forbidden []string, logger *slog.Logger) (*Guard, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", resolved)
	}

	g := &Guard{root: resolved, logger: logger}
	seen := map[string]bool{}
	for _, f := range forbidden {
		if f == "" || !filepath.IsAbs(f) {
			continue
		}
		clean := filepath.Clean(f)
		forms := []string{clean}
		if r, err := resolvePath(clean); err == nil && r != clean {
			forms = append(forms, r)
		}
		for _, form := range forms {
			if seen[form] {
				continue
			}
			seen[form] = true
			if within(form, resolved) {
				return nil, fmt.Errorf("workspace root %s lies inside forbidden path %s", resolved, f)
			}
			g.forbidden = append(g.forbidden, form)
		}
	}
	return g, nil
}

// Root returns the resolved workspace root.
func (g *Guard) Root() string { return g.root }

// Forbidden returns a copy of the effective forbidden prefixes.
func (g *Guard) Forbidden() []string {
	return append([]string(nil), g.forbidden...)
}

// Validate reports whether candidate may be accessed.
func (g *Guard) Validate(candidate string) bool {
	_, ok := g.Resolve(candidate)
	return ok
}

// Resolve returns the accepted target for candidate. Relative candidates
// are interpreted against the workspace root; absolute ones must resolve
// inside it. The reason for a rejection is logged, never returned.
func (g *Guard) Resolve(candidate string) (Target, bool) {
	if scan := unicode.Scan(candidate); scan.Blocked() || strings.ContainsAny(candidate, "\n\r\t") {
		g.reject(candidate, "suspicious characters in path")
		return Target{}, false
	}

	p := candidate
	if p == "" {
		p = "."
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.root, p)
	}
	p = filepath.Clean(p)

	resolved, err := resolvePath(p)
	if err != nil {
		g.reject(candidate, err.Error())
		return Target{}, false
	}
	if !within(g.root, resolved) {
		g.reject(candidate, "outside workspace")
		return Target{}, false
	}
	for _, f := range g.forbidden {
		if within(f, resolved) || within(f, p) {
			g.reject(candidate, "forbidden prefix "+f)
			return Target{}, false
		}
	}

	rel, err := filepath.Rel(g.root, resolved)
	if err != nil {
		g.reject(candidate, err.Error())
		return Target{}, false
	}
	return Target{Abs: resolved, Rel: filepath.ToSlash(rel)}, true
}

// Rel renders an absolute path under the root in slash form. Paths outside
// the root come back unchanged.
func (g *Guard) Rel(abs string) string {
	rel, err := filepath.Rel(g.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}

func (g *Guard) reject(candidate, reason string) {
	g.logger.Warn("path rejected", "path", candidate, "reason", reason)
}

// resolvePath follows symlinks in p. Components that do not exist yet are
// appended lexically to the deepest existing ancestor, which is what lets
// create() validate paths whose parents it is about to make. A component
// that exists as a dangling symlink is an error: writing through it would
// land wherever the link points.
func resolvePath(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if _, lerr := os.Lstat(p); lerr == nil {
		return "", errDanglingLink
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	resolvedParent, err := resolvePath(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(p)), nil
}

// within reports whether p is base or a descendant of it, comparing whole
// path components so /work does not contain /workshop.
func within(base, p string) bool {
	if p == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
