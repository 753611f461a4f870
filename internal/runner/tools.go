package runner

import (
	"context"
	"strings"
	"time"

	"github.com/djklmr2025/cosmos-den/internal/fault"
)

const (
	// NPMInstallTimeout is the default for npm install, which routinely
	// outlives the general default.
	NPMInstallTimeout = 600 * time.Second
	// ToolProbeTimeout bounds "<tool> --version".
	ToolProbeTimeout = 5 * time.Second
)

// DefaultTools are the toolchains reported by CheckTools.
var DefaultTools = []string{"node", "npm", "python", "git", "firebase"}

// RunPython runs code with "python -c".
func (r *Runner) RunPython(ctx context.Context, code, dir string, timeout time.Duration) (Result, error) {
	return r.Run(ctx, Request{Name: "python", Args: []string{"-c", code}, Dir: dir, Timeout: timeout})
}

// RunNode runs script with "node -e".
func (r *Runner) RunNode(ctx context.Context, script, dir string, timeout time.Duration) (Result, error) {
	return r.Run(ctx, Request{Name: "node", Args: []string{"-e", script}, Dir: dir, Timeout: timeout})
}

// NPMInstall runs "npm install", optionally as dev dependencies. With no
// packages it installs what package.json declares.
func (r *Runner) NPMInstall(ctx context.Context, packages []string, dev bool, dir string, timeout time.Duration) (Result, error) {
	args := []string{"install"}
	if dev {
		args = append(args, "--save-dev")
	}
	args = append(args, packages...)
	if timeout <= 0 {
		timeout = NPMInstallTimeout
	}
	return r.Run(ctx, Request{Name: "npm", Args: args, Dir: dir, Timeout: timeout})
}

func (r *Runner) Git(ctx context.Context, args []string, dir string, timeout time.Duration) (Result, error) {
	return r.Run(ctx, Request{Name: "git", Args: args, Dir: dir, Timeout: timeout})
}

func (r *Runner) GitInit(ctx context.Context, dir string) (Result, error) {
	return r.Git(ctx, []string{"init"}, dir, 0)
}

// GitAdd stages files, or everything under dir when files is empty.
func (r *Runner) GitAdd(ctx context.Context, files []string, dir string) (Result, error) {
	if len(files) == 0 {
		files = []string{"."}
	}
	return r.Git(ctx, append([]string{"add"}, files...), dir, 0)
}

func (r *Runner) GitCommit(ctx context.Context, message, dir string) (Result, error) {
	return r.Git(ctx, []string{"commit", "-m", message}, dir, 0)
}

func (r *Runner) GitPush(ctx context.Context, dir string) (Result, error) {
	return r.Git(ctx, []string{"push"}, dir, 0)
}

type ToolStatus struct {
	Tool      string `json:"tool"`
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckToolInstalled runs "<tool> --version" and reports whether it
// succeeded. Failure of any kind means "not installed"; it is never
// returned as an error.
func (r *Runner) CheckToolInstalled(ctx context.Context, tool string) ToolStatus {
	status := ToolStatus{Tool: tool}
	res, err := r.Run(ctx, Request{Name: tool, Args: []string{"--version"}, Timeout: ToolProbeTimeout})
	switch {
	case err != nil:
		if fault.KindOf(err) == fault.KindPolicyRejected {
			status.Error = "not permitted"
		} else {
			status.Error = tool + " is not installed or not on PATH"
		}
	case !res.Success:
		status.Error = tool + " is not installed or not on PATH"
	default:
		status.Installed = true
		status.Version = firstLine(res.Stdout)
		if status.Version == "" {
			status.Version = firstLine(res.Stderr)
		}
	}
	return status
}

// CheckTools probes each of tools, DefaultTools when none are given.
func (r *Runner) CheckTools(ctx context.Context, tools ...string) []ToolStatus {
	if len(tools) == 0 {
		tools = DefaultTools
	}
	out := make([]ToolStatus, 0, len(tools))
	for _, t := range tools {
		out = append(out, r.CheckToolInstalled(ctx, t))
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
