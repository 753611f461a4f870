package runner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// maxTrackedFiles bounds the snapshot taken for change tracking.
const maxTrackedFiles = 10000

type FileChange struct {
	Path      string `json:"path"`
	Action    string `json:"action"` // "added", "modified", "deleted"
	SizeDelta int64  `json:"size_delta"`
}

type fileState struct {
	size    int64
	modTime int64
}

// captureState records size and mtime of regular files under dir, skipping
// VCS metadata and dependency directories.
func captureState(dir string) map[string]fileState {
	state := make(map[string]fileState)

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if len(state) >= maxTrackedFiles {
			return filepath.SkipAll
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "node_modules", ".venv", "venv", "__pycache__":
				if path != dir {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		state[filepath.ToSlash(rel)] = fileState{size: info.Size(), modTime: info.ModTime().UnixNano()}
		return nil
	})
	return state
}

func computeChanges(before, after map[string]fileState) []FileChange {
	changes := []FileChange{}

	for path, a := range after {
		b, existed := before[path]
		switch {
		case !existed:
			changes = append(changes, FileChange{Path: path, Action: "added", SizeDelta: a.size})
		case a.modTime != b.modTime || a.size != b.size:
			changes = append(changes, FileChange{Path: path, Action: "modified", SizeDelta: a.size - b.size})
		}
	}
	for path, b := range before {
		if _, exists := after[path]; !exists {
			changes = append(changes, FileChange{Path: path, Action: "deleted", SizeDelta: -b.size})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// Summarize renders changes as a short human-readable report.
func Summarize(changes []FileChange) string {
	if len(changes) == 0 {
		return "No files changed."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d file(s) changed:\n", len(changes))

	added, modified, deleted := 0, 0, 0
	for _, c := range changes {
		switch c.Action {
		case "added":
			added++
			fmt.Fprintf(&sb, "  + %s (new, %d bytes)\n", c.Path, c.SizeDelta)
		case "modified":
			modified++
			fmt.Fprintf(&sb, "  ~ %s (%+d bytes)\n", c.Path, c.SizeDelta)
		case "deleted":
			deleted++
			fmt.Fprintf(&sb, "  - %s (removed)\n", c.Path)
		}
	}

	fmt.Fprintf(&sb, "\nSummary: %d added, %d modified, %d deleted\n", added, modified, deleted)
	return sb.String()
}
