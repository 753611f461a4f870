package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/djklmr2025/cosmos-den/internal/core"
	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/filestore"
	"github.com/djklmr2025/cosmos-den/internal/history"
	"github.com/djklmr2025/cosmos-den/internal/normalize"
	"github.com/djklmr2025/cosmos-den/internal/runner"
)

type handlerFunc func(ctx context.Context, d *Dispatcher, params json.RawMessage) (any, error)

var handlers = map[string]handlerFunc{
	"file_create":        fileCreate,
	"file_read":          fileRead,
	"file_edit":          fileEdit,
	"file_delete":        fileDelete,
	"file_list":          fileList,
	"file_mkdir":         fileMkdir,
	"file_search":        fileSearch,
	"file_info":          fileInfo,
	"file_tree":          fileTree,
	"file_watch":         fileWatch,
	"favorite_add":       favoriteAdd,
	"favorite_remove":    favoriteRemove,
	"favorite_list":      favoriteList,
	"navigation_history": navigationHistory,
	"command_execute":    commandExecute,
	"code_execute":       codeExecute,
	"package_install":    packageInstall,
	"git_execute":        gitExecute,
	"tool_check":         toolCheck,
	"execution_history":  executionHistory,
}

// Actions returns the supported action names, sorted.
func Actions() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a supported action.
func Known(name string) bool {
	_, ok := handlers[name]
	return ok
}

// Dispatcher routes requests to the file store and the runner of one
// service.
type Dispatcher struct {
	store      *filestore.Store
	runner     *runner.Runner
	executions *history.ExecutionHistory
	logger     *slog.Logger
}

func New(svc *core.Service) *Dispatcher {
	return &Dispatcher{
		store:      svc.Store,
		runner:     svc.Runner,
		executions: svc.Executions,
		logger:     svc.Logger.With("component", "action"),
	}
}

// Dispatch runs req and wraps the outcome in an Envelope. A panicking
// handler yields an Unexpected envelope; the panic value is only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (env Envelope) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("action panicked", "action", req.Action, "panic", v, "stack", string(debug.Stack()))
			env = failure(fault.New(fault.KindUnexpected, req.Action, "", ""), nil)
		}
	}()

	h, ok := handlers[req.Action]
	if !ok {
		return failure(fault.New(fault.KindInvalidRequest, "", "", fmt.Sprintf("unknown action %q", req.Action)), nil)
	}

	data, err := h(ctx, d, req.Params)
	if err != nil {
		if fault.KindOf(err) == fault.KindUnexpected {
			d.logger.Error("action failed", "action", req.Action, "error", err)
		} else {
			d.logger.Debug("action failed", "action", req.Action, "error", err)
		}
		return failure(err, data)
	}
	// A process that ran and exited non-zero is not a fault, but ok still
	// follows its exit status.
	if res, ok := data.(runner.Result); ok && !res.Success {
		return Envelope{Error: fmt.Sprintf("%s exited with status %d", res.Command, res.ExitCode), Data: res}
	}
	return success(data)
}

// DispatchJSON decodes a request document (comments and trailing commas
// allowed) and dispatches it.
func (d *Dispatcher) DispatchJSON(ctx context.Context, data []byte) Envelope {
	var req Request
	if err := json.Unmarshal(jsonc.ToJSON(data), &req); err != nil {
		return failure(fault.New(fault.KindInvalidRequest, "", "", "malformed request: "+err.Error()), nil)
	}
	return d.Dispatch(ctx, req)
}

// decode fills v from params, rejecting unknown fields. Missing or null
// params leave v at its zero value.
func decode(params json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fault.New(fault.KindInvalidRequest, "", "", "invalid params: "+err.Error())
	}
	return nil
}

func required(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fault.New(fault.KindInvalidRequest, op, "", field+" is required")
	}
	return nil
}

func seconds(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n * float64(time.Second))
}

type pathParams struct {
	Path string `json:"path"`
}

func fileCreate(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Path      string `json:"path"`
		Content   string `json:"content"`
		Overwrite bool   `json:"overwrite"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("create", "path", p.Path); err != nil {
		return nil, err
	}
	return d.store.Create(p.Path, p.Content, p.Overwrite)
}

func fileRead(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p pathParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("read", "path", p.Path); err != nil {
		return nil, err
	}
	return d.store.Read(p.Path)
}

func fileEdit(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("update", "path", p.Path); err != nil {
		return nil, err
	}
	return d.store.Update(p.Path, p.Content)
}

func fileDelete(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Path    string `json:"path"`
		Confirm bool   `json:"confirm"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("delete", "path", p.Path); err != nil {
		return nil, err
	}
	return d.store.Delete(p.Path, p.Confirm)
}

func fileList(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Path          string `json:"path"`
		Recursive     bool   `json:"recursive"`
		IncludeHidden bool   `json:"include_hidden"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.store.List(p.Path, filestore.ListOptions{Recursive: p.Recursive, IncludeHidden: p.IncludeHidden})
}

func fileMkdir(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p pathParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("mkdir", "path", p.Path); err != nil {
		return nil, err
	}
	return d.store.Mkdir(p.Path)
}

func fileSearch(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Pattern   string `json:"pattern"`
		Dir       string `json:"dir"`
		InContent bool   `json:"in_content"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.store.Search(p.Pattern, filestore.SearchOptions{Dir: p.Dir, InContent: p.InContent})
}

func fileInfo(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p pathParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.store.Info(p.Path)
}

func fileTree(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Path     string `json:"path"`
		MaxDepth int    `json:"max_depth"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.store.Tree(p.Path, p.MaxDepth)
}

func fileWatch(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p pathParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("watch", "path", p.Path); err != nil {
		return nil, err
	}
	return d.store.Watch(p.Path)
}

func favoriteAdd(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p pathParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.store.AddFavorite(p.Path)
}

func favoriteRemove(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p pathParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.store.RemoveFavorite(p.Path)
}

func favoriteList(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	if err := decode(params, &struct{}{}); err != nil {
		return nil, err
	}
	favorites := d.store.Favorites()
	return map[string]any{"favorites": favorites, "count": len(favorites)}, nil
}

func navigationHistory(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	if err := decode(params, &struct{}{}); err != nil {
		return nil, err
	}
	visits := d.store.NavigationHistory()
	return map[string]any{"history": visits, "count": len(visits)}, nil
}

type runParams struct {
	Cwd     string  `json:"cwd"`
	Timeout float64 `json:"timeout"`
}

func commandExecute(ctx context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		runParams
		Command      string            `json:"command"`
		Args         []string          `json:"args"`
		Env          map[string]string `json:"env"`
		TrackChanges bool              `json:"track_changes"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("run", "command", p.Command); err != nil {
		return nil, err
	}
	return d.runner.Run(ctx, runner.Request{
		Name:         p.Command,
		Args:         p.Args,
		Dir:          p.Cwd,
		Timeout:      seconds(p.Timeout),
		Env:          p.Env,
		TrackChanges: p.TrackChanges,
	})
}

func codeExecute(ctx context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		runParams
		Language string `json:"language"`
		Code     string `json:"code"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("code_execute", "code", p.Code); err != nil {
		return nil, err
	}
	switch strings.ToLower(p.Language) {
	case "", "python", "py":
		return d.runner.RunPython(ctx, p.Code, p.Cwd, seconds(p.Timeout))
	case "node", "javascript", "js":
		return d.runner.RunNode(ctx, p.Code, p.Cwd, seconds(p.Timeout))
	default:
		return nil, fault.New(fault.KindInvalidRequest, "code_execute", "", fmt.Sprintf("unsupported language %q", p.Language))
	}
}

func packageInstall(ctx context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		runParams
		Packages []string `json:"packages"`
		Dev      bool     `json:"dev"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return d.runner.NPMInstall(ctx, p.Packages, p.Dev, p.Cwd, seconds(p.Timeout))
}

// gitExecute accepts either an argument list or a command string such as
// `commit -m "first commit"`. A leading "git" is dropped from either form.
func gitExecute(ctx context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		runParams
		Args    []string `json:"args"`
		Command string   `json:"command"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	args := p.Args
	if len(args) == 0 && p.Command != "" {
		split, err := normalize.SplitCommandLine(p.Command)
		if err != nil {
			return nil, &fault.Error{Kind: fault.KindInvalidRequest, Op: "git_execute", Detail: err.Error(), Err: err}
		}
		args = split
	}
	if len(args) > 0 && args[0] == "git" {
		args = args[1:]
	}
	if len(args) == 0 {
		return nil, fault.New(fault.KindInvalidRequest, "git_execute", "", "no git arguments given")
	}
	return d.runner.Git(ctx, args, p.Cwd, seconds(p.Timeout))
}

func toolCheck(ctx context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Tools []string `json:"tools"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	statuses := d.runner.CheckTools(ctx, p.Tools...)
	tools := make(map[string]runner.ToolStatus, len(statuses))
	for _, s := range statuses {
		tools[s.Tool] = s
	}
	return map[string]any{"tools": tools}, nil
}

func executionHistory(_ context.Context, d *Dispatcher, params json.RawMessage) (any, error) {
	var p struct {
		Limit *int `json:"limit"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	limit := history.DefaultListLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	records := d.executions.List(limit)
	return map[string]any{"history": records, "count": len(records), "total": d.executions.Len()}, nil
}
