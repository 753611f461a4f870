package policy

import (
	"path/filepath"
	"strings"
)

// DefaultExtensions are the suffixes a file may be created with.
var DefaultExtensions = []string{
	// source
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".cpp", ".c", ".h", ".hpp", ".cs", ".go", ".rb", ".php",
	// web
	".html", ".css", ".scss", ".sass", ".less", ".svg", ".vue",
	// config
	".json", ".yaml", ".yml", ".toml", ".ini", ".env", ".gitignore", ".dockerignore", ".editorconfig",
	// docs
	".md", ".txt", ".rst", ".pdf", ".doc", ".docx",
	// data
	".csv", ".xml", ".sql", ".db", ".sqlite",
	// images
	".jpg", ".jpeg", ".png", ".gif", ".ico",
}

// ExtensionPolicy is an immutable suffix allow-list.
type ExtensionPolicy struct {
	allowed map[string]bool
}

// NewExtensionPolicy returns the default allow-list extended by extra. Entries
// without a leading dot get one; comparison is case-insensitive.
func NewExtensionPolicy(extra ...[]string) *ExtensionPolicy {
	ep := &ExtensionPolicy{allowed: map[string]bool{}}
	lists := append([][]string{DefaultExtensions}, extra...)
	for _, list := range lists {
		for _, ext := range list {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			ep.allowed[ext] = true
		}
	}
	return ep
}

// Allowed reports whether ext (as returned by Suffix) is on the list.
func (ep *ExtensionPolicy) Allowed(ext string) bool {
	return ep.allowed[strings.ToLower(ext)]
}

// AllowsCreate reports whether a file called name may be created. Names
// without a suffix ("Makefile", ".env") are accepted.
func (ep *ExtensionPolicy) AllowsCreate(name string) bool {
	ext := Suffix(name)
	return ext == "" || ep.Allowed(ext)
}

// List returns the allowed suffixes in no particular order.
func (ep *ExtensionPolicy) List() []string {
	out := make([]string, 0, len(ep.allowed))
	for ext := range ep.allowed {
		out = append(out, ext)
	}
	return out
}

// Suffix returns the extension of the final path element. A name whose only
// dot is the leading one (".gitignore") has no suffix.
func Suffix(name string) string {
	base := filepath.Base(name)
	trimmed := strings.TrimLeft(base, ".")
	if !strings.Contains(trimmed, ".") || strings.HasSuffix(base, ".") {
		return ""
	}
	return strings.ToLower(filepath.Ext(base))
}
