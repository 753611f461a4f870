// Package runner spawns allow-listed commands inside the workspace. Commands
// are executed directly, never through a shell, in their own process group
// so a timeout kills everything they started.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/history"
	"github.com/djklmr2025/cosmos-den/internal/logger"
	"github.com/djklmr2025/cosmos-den/internal/normalize"
	"github.com/djklmr2025/cosmos-den/internal/pathguard"
	"github.com/djklmr2025/cosmos-den/internal/policy"
	"github.com/djklmr2025/cosmos-den/internal/redact"
)

const DefaultTimeout = 300 * time.Second

type Request struct {
	Name string
	Args []string
	// Dir is the working directory relative to the workspace root.
	Dir string
	// Timeout overrides the runner default when positive.
	Timeout time.Duration
	// Env is merged over the inherited environment.
	Env map[string]string
	// TrackChanges reports files added, modified or deleted under Dir.
	TrackChanges bool
}

type Result struct {
	ID             string          `json:"id"`
	Command        string          `json:"command"`
	Cwd            string          `json:"cwd"`
	ExitCode       int             `json:"exit_code"`
	Stdout         string          `json:"stdout"`
	Stderr         string          `json:"stderr"`
	Duration       time.Duration   `json:"duration"`
	Success        bool            `json:"success"`
	TimedOut       bool            `json:"timed_out,omitempty"`
	Decision       policy.Decision `json:"decision"`
	TriggeredRules []string        `json:"triggered_rules,omitempty"`
	Changes        []FileChange    `json:"changes,omitempty"`
}

type Options struct {
	Gate           *policy.Gate
	Guard          *pathguard.Guard
	History        *history.ExecutionHistory
	Audit          *logger.AuditLogger
	Logger         *slog.Logger
	DefaultTimeout time.Duration
	TrackChanges   bool
}

type Runner struct {
	gate           *policy.Gate
	guard          *pathguard.Guard
	history        *history.ExecutionHistory
	audit          *logger.AuditLogger
	logger         *slog.Logger
	defaultTimeout time.Duration
	trackChanges   bool
}

func New(opts Options) (*Runner, error) {
	if opts.Gate == nil || opts.Guard == nil {
		return nil, errors.New("runner: gate and guard are required")
	}
	r := &Runner{
		gate:           opts.Gate,
		guard:          opts.Guard,
		history:        opts.History,
		audit:          opts.Audit,
		logger:         opts.Logger,
		defaultTimeout: opts.DefaultTimeout,
		trackChanges:   opts.TrackChanges,
	}
	if r.history == nil {
		r.history = history.NewExecutionHistory(0)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.defaultTimeout <= 0 {
		r.defaultTimeout = DefaultTimeout
	}
	return r, nil
}

func (r *Runner) History() *history.ExecutionHistory { return r.history }

// Check evaluates a command without running it. Besides the gate's verdict,
// arguments that name paths outside the workspace raise the decision to
// AUDIT.
func (r *Runner) Check(name string, args []string, dir string) policy.EvalResult {
	eval := r.gate.Check(name, args)
	if eval.Decision == policy.DecisionBlock {
		return eval
	}

	base := r.guard.Root()
	if target, ok := r.guard.Resolve(dir); ok {
		base = target.Abs
	}
	inv := normalize.Describe(name, args, base)
	var outside []string
	for _, p := range inv.Paths {
		if !r.guard.Validate(p) {
			outside = append(outside, p)
		}
	}
	if len(outside) == 0 {
		return eval
	}

	for _, p := range outside {
		eval = eval.Flag("path-outside-workspace", fmt.Sprintf("argument refers to %s", p))
	}
	return eval
}

// Run executes req and waits for it to finish or time out.
//
// A non-zero exit status is not an error: the returned Result carries the
// exit code and Success is false. Errors are returned for policy rejection,
// a missing working directory, a failed spawn, a timeout and caller
// cancellation; the last two still return everything the process wrote.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	const op = "run"

	display := redact.Command(req.Name, req.Args)
	result := Result{ID: uuid.NewString(), Command: display}

	eval := r.Check(req.Name, req.Args, req.Dir)
	result.Decision = eval.Decision
	result.TriggeredRules = eval.TriggeredRules
	if !eval.Allowed() {
		r.logger.Warn("command rejected", "command", display, "rules", eval.TriggeredRules)
		err := fault.Rejected(op, req.Name)
		r.record(result, eval, req, err)
		return result, err
	}

	target, ok := r.guard.Resolve(req.Dir)
	if !ok {
		err := fault.Rejected(op, req.Dir)
		r.record(result, eval, req, err)
		return result, err
	}
	result.Cwd = target.Rel
	if info, err := os.Stat(target.Abs); err != nil || !info.IsDir() {
		ferr := fault.New(fault.KindWorkingDirectoryNotFound, op, req.Dir, "")
		r.record(result, eval, req, ferr)
		return result, ferr
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	var before map[string]fileState
	track := req.TrackChanges || r.trackChanges
	if track {
		before = captureState(target.Abs)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, req.Name, req.Args...)
	cmd.Dir = target.Abs
	cmd.Env = mergeEnv(os.Environ(), req.Env)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setupProcessGroup(cmd)

	r.logger.Info("running command", "command", display, "cwd", target.Rel, "timeout", timeout)
	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.Duration = duration

	var opErr error
	switch classifyExit(ctx, runCtx, cmd.ProcessState != nil, runErr) {
	case exitSpawnFailed:
		r.logger.Warn("spawn failed", "command", display, "error", runErr)
		opErr = &fault.Error{Kind: fault.KindProcessSpawnFailed, Op: op, Path: req.Name, Detail: spawnDetail(runErr), Err: runErr}
		r.record(result, eval, req, opErr)
		return result, opErr
	case exitCanceled:
		result.ExitCode = -1
		opErr = fault.Wrap(fault.KindCanceled, op, req.Name, ctx.Err())
	case exitTimedOut:
		result.ExitCode = -1
		result.TimedOut = true
		if result.Duration > timeout {
			result.Duration = timeout
		}
		opErr = fault.New(fault.KindTimeout, op, req.Name, fmt.Sprintf("timed out after %s", timeout))
	case exitCompleted:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
	case exitWaitFailed:
		r.logger.Error("command wait failed", "command", display, "error", runErr)
		opErr = fault.Wrap(fault.KindUnexpected, op, req.Name, runErr)
		result.ExitCode = -1
	}
	result.Success = opErr == nil && result.ExitCode == 0

	if track {
		result.Changes = computeChanges(before, captureState(target.Abs))
	}

	rec := history.ExecutionRecord{
		ID:        result.ID,
		Command:   display,
		Cwd:       result.Cwd,
		ExitCode:  result.ExitCode,
		Duration:  result.Duration,
		Timestamp: start,
		Success:   result.Success,
		TimedOut:  result.TimedOut,
	}
	if opErr != nil {
		rec.Error = fault.Message(opErr)
	}
	r.history.Append(rec)

	r.logger.Info("command finished", "command", display, "exit_code", result.ExitCode,
		"duration", result.Duration, "timed_out", result.TimedOut)
	r.record(result, eval, req, opErr)
	return result, opErr
}

type exitClass int

const (
	exitCompleted exitClass = iota
	exitSpawnFailed
	exitCanceled
	exitTimedOut
	exitWaitFailed
)

// classifyExit sorts out how cmd.Run ended. A process that exited on its own
// counts as completed even when the deadline expired while it was reaped.
func classifyExit(ctx, runCtx context.Context, started bool, runErr error) exitClass {
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return exitCompleted
	case !started && runCtx.Err() == nil:
		return exitSpawnFailed
	case ctx.Err() != nil:
		return exitCanceled
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return exitTimedOut
	case errors.As(runErr, &exitErr):
		return exitCompleted
	default:
		return exitWaitFailed
	}
}

// spawned reports whether a run that ended with opErr got as far as starting
// the process.
func spawned(opErr error) bool {
	switch fault.KindOf(opErr) {
	case "", fault.KindTimeout, fault.KindCanceled, fault.KindUnexpected:
		return true
	}
	return false
}

func spawnDetail(err error) string {
	if errors.Is(err, exec.ErrNotFound) {
		return "executable not found"
	}
	return "process could not be started"
}

// mergeEnv overlays extra on base. Keys from extra replace inherited ones;
// everything else, PATH included, is kept.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, replaced := extra[k]; replaced {
			continue
		}
		out = append(out, kv)
	}
	for _, k := range keys {
		out = append(out, k+"="+extra[k])
	}
	return out
}

func (r *Runner) record(result Result, eval policy.EvalResult, req Request, opErr error) {
	if r.audit == nil {
		return
	}
	event := logger.AuditEvent{
		ID:             result.ID,
		Type:           logger.TypeCommand,
		Op:             "run",
		Command:        result.Command,
		Args:           req.Args,
		Cwd:            result.Cwd,
		Decision:       string(eval.Decision),
		Flagged:        eval.Flagged(),
		TriggeredRules: eval.TriggeredRules,
		Reasons:        eval.Reasons,
		TimedOut:       result.TimedOut,
	}
	if eval.Allowed() && spawned(opErr) {
		code := result.ExitCode
		event.ExitCode = &code
		event.DurationMs = result.Duration.Milliseconds()
	}
	if len(req.Env) > 0 {
		event.Reasons = append(event.Reasons, "env: "+fmt.Sprint(redact.Env(req.Env)))
	}
	if opErr != nil {
		event.Error = fault.Message(opErr)
	}
	if err := r.audit.Log(event); err != nil {
		r.logger.Warn("audit log write failed", "error", err)
	}
}
