package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/djklmr2025/cosmos-den/internal/history"
)

// StateFile holds favorites and navigation history between runs, keyed by
// workspace root.
const StateFile = "state.json"

type workspaceState struct {
	Favorites  []string        `json:"favorites,omitempty"`
	Navigation []history.Visit `json:"navigation,omitempty"`
}

func readState(path string) (map[string]workspaceState, error) {
	states := map[string]workspaceState{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return states, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return states, nil
}

// restoreState loads this workspace's favorites and navigation history. A
// corrupt state file is logged and ignored.
func (s *Service) restoreState() {
	if s.statePath == "" {
		return
	}
	states, err := readState(s.statePath)
	if err != nil {
		s.Logger.Warn("ignoring saved state", "path", s.statePath, "error", err)
		return
	}
	st := states[s.Guard.Root()]
	for _, p := range st.Favorites {
		s.Favorites.Add(p)
	}
	s.Navigation.Restore(st.Navigation)
}

// SaveState writes this workspace's favorites and navigation history,
// leaving other workspaces' entries alone.
func (s *Service) SaveState() error {
	if s.statePath == "" {
		return nil
	}
	states, err := readState(s.statePath)
	if err != nil {
		states = map[string]workspaceState{}
	}
	states[s.Guard.Root()] = workspaceState{
		Favorites:  s.Favorites.List(),
		Navigation: s.Navigation.List(),
	}
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.statePath), ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.statePath)
}
