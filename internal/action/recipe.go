package action

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/djklmr2025/cosmos-den/internal/fault"
)

// Recipe is a named sequence of actions, authored as JSONC:
//
//	{
//	  "name": "scaffold",
//	  // stop at the first failure unless this is set
//	  "continue_on_error": false,
//	  "steps": [
//	    {"action": "file_mkdir", "params": {"path": "src"}},
//	    {"action": "git_execute", "params": {"command": "init"}},
//	  ],
//	}
type Recipe struct {
	Name            string `json:"name"`
	Steps           []Step `json:"steps"`
	ContinueOnError bool   `json:"continue_on_error"`
}

type Step struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

type StepResult struct {
	Index  int      `json:"index"`
	Action string   `json:"action"`
	Result Envelope `json:"result"`
}

type RecipeResult struct {
	Name    string       `json:"name"`
	OK      bool         `json:"ok"`
	Steps   []StepResult `json:"steps"`
	Skipped int          `json:"skipped,omitempty"`
}

// ParseRecipe strips comments and trailing commas from data, decodes it and
// checks that every step names a known action.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := json.Unmarshal(jsonc.ToJSON(data), &r); err != nil {
		return nil, fmt.Errorf("parsing recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReadRecipe reads a recipe file. A recipe without a name is named after
// the file.
func ReadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := ParseRecipe(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Name == "" {
		base := filepath.Base(path)
		r.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return r, nil
}

func (r *Recipe) Validate() error {
	if len(r.Steps) == 0 {
		return fault.New(fault.KindInvalidRequest, "recipe", r.Name, "recipe has no steps")
	}
	for i, s := range r.Steps {
		if !Known(s.Action) {
			return fault.New(fault.KindInvalidRequest, "recipe", r.Name, fmt.Sprintf("step %d: unknown action %q", i+1, s.Action))
		}
	}
	return nil
}

// RunRecipe dispatches the steps in order. It stops after the first failed
// step unless ContinueOnError is set, and before any step once ctx is done.
func (d *Dispatcher) RunRecipe(ctx context.Context, r *Recipe) RecipeResult {
	result := RecipeResult{Name: r.Name, OK: true, Steps: []StepResult{}}

	for i, step := range r.Steps {
		if ctx.Err() != nil {
			result.OK = false
			result.Skipped = len(r.Steps) - i
			break
		}

		env := d.Dispatch(ctx, Request{Action: step.Action, Params: step.Params})
		result.Steps = append(result.Steps, StepResult{Index: i + 1, Action: step.Action, Result: env})
		if env.OK {
			continue
		}

		result.OK = false
		d.logger.Info("recipe step failed", "recipe", r.Name, "step", i+1, "action", step.Action, "kind", env.Kind)
		if !r.ContinueOnError {
			result.Skipped = len(r.Steps) - i - 1
			break
		}
	}
	return result
}
