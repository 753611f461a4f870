// Package redact scrubs credentials from strings before they reach the audit
// log or an execution record.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

const Placeholder = "[REDACTED]"

var patterns = []*regexp.Regexp{
	// cloud
	regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{20,}['"]?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),

	// forges and registries
	regexp.MustCompile(`(?i)(github_token|gh_token|github_pat)\s*[=:]\s*['"]?[A-Za-z0-9_-]{30,}['"]?`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
	regexp.MustCompile(`npm_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`(?i)//registry\.[^\s]+/:_authToken=[^\s]+`),
	regexp.MustCompile(`pypi-[A-Za-z0-9_-]{50,}`),

	// firebase CI refresh tokens
	regexp.MustCompile(`1//[0-9A-Za-z_-]{30,}`),

	regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|secretkey|secret-key|access_token|auth_token)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_.-]{20,}`),

	// credentials embedded in URLs, e.g. git remotes
	regexp.MustCompile(`(https?://)[^/\s:@]+:[^/\s@]+@`),

	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),
	regexp.MustCompile(`[sr]k_live_[0-9a-zA-Z]{24}`),
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),
}

// String replaces every recognised secret in input with Placeholder.
func String(input string) string {
	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, Placeholder)
	}
	return result
}

// Args redacts each argument independently.
func Args(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = String(arg)
	}
	return result
}

// Command renders name and args as a single redacted line for records and
// logs. It is for display only and is never executed.
func Command(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, arg := range Args(args) {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

var sensitiveEnvNames = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"GITHUB_PAT",
	"API_KEY",
	"SECRET",
	"AUTH_TOKEN",
	"ACCESS_TOKEN",
	"PASSWORD",
	"PASSWD",
	"DATABASE_URL",
	"REDIS_URL",
	"MONGO_URL",
	"SLACK_TOKEN",
	"NPM_TOKEN",
	"NODE_AUTH_TOKEN",
	"PYPI_TOKEN",
	"FIREBASE_TOKEN",
	"GOOGLE_APPLICATION_CREDENTIALS",
}

func sensitiveName(name string) bool {
	upper := strings.ToUpper(name)
	for _, s := range sensitiveEnvNames {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// Env returns "KEY=value" pairs for env in key order, with the values of
// sensitive-looking names replaced and the rest passed through String.
func Env(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v := env[k]
		if sensitiveName(k) {
			v = Placeholder
		} else {
			v = String(v)
		}
		out = append(out, k+"="+v)
	}
	return out
}
