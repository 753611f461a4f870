// Package normalize turns a command invocation into the facts the gate and
// the audit log care about: which files it names and which hosts it reaches.
package normalize

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Invocation is a command broken down for auditing.
type Invocation struct {
	Raw     string
	Name    string
	Args    []string
	Dir     string
	Paths   []string
	Domains []string
}

var domainRegex = regexp.MustCompile(`https?://([^/\s'"]+)`)

// Describe analyses name and args as they would run in dir. Path-like
// arguments come back absolute and cleaned; nothing is resolved on disk.
func Describe(name string, args []string, dir string) Invocation {
	inv := Invocation{
		Raw:     strings.TrimSpace(name + " " + strings.Join(args, " ")),
		Name:    filepath.Base(name),
		Args:    args,
		Dir:     dir,
		Paths:   []string{},
		Domains: []string{},
	}
	if name == "" {
		inv.Name = ""
	}

	homeDir, _ := os.UserHomeDir()

	for _, arg := range args {
		if value, ok := flagValue(arg); ok {
			arg = value
		}
		if looksLikePath(arg) {
			inv.Paths = append(inv.Paths, expandPath(arg, dir, homeDir))
		}
		inv.Domains = append(inv.Domains, extractDomains(arg)...)
	}

	if inv.Name == "git" && len(args) > 1 && args[0] == "clone" {
		if domain := extractGitDomain(args[1]); domain != "" {
			inv.Domains = append(inv.Domains, domain)
		}
	}

	inv.Paths = uniqueStrings(inv.Paths)
	inv.Domains = uniqueStrings(inv.Domains)
	return inv
}

// flagValue extracts the value of --flag=value arguments.
func flagValue(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "--") {
		return "", false
	}
	_, value, ok := strings.Cut(arg, "=")
	return value, ok && value != ""
}

func looksLikePath(arg string) bool {
	if arg == "" || strings.HasPrefix(arg, "-") {
		return false
	}
	if strings.Contains(arg, "://") || strings.HasPrefix(arg, "git@") {
		return false
	}
	if arg == "." || arg == ".." || arg == "~" {
		return true
	}
	return strings.HasPrefix(arg, "~/") || strings.ContainsAny(arg, `/\`)
}

func expandPath(path, dir, homeDir string) string {
	if homeDir != "" {
		if path == "~" {
			path = homeDir
		} else if strings.HasPrefix(path, "~/") {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return filepath.Clean(path)
}

func extractDomains(s string) []string {
	matches := domainRegex.FindAllStringSubmatch(s, -1)
	domains := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) > 1 {
			domains = append(domains, match[1])
		}
	}
	return domains
}

func extractGitDomain(repoURL string) string {
	if strings.HasPrefix(repoURL, "git@") {
		host, _, _ := strings.Cut(strings.TrimPrefix(repoURL, "git@"), ":")
		return host
	}
	if strings.HasPrefix(repoURL, "http://") || strings.HasPrefix(repoURL, "https://") {
		if u, err := url.Parse(repoURL); err == nil {
			return u.Host
		}
	}
	return ""
}

func uniqueStrings(input []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(input))
	for _, s := range input {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}
