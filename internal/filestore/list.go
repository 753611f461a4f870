package filestore

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/djklmr2025/cosmos-den/internal/policy"
)

type Entry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension,omitempty"`
}

type ListResult struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"files"`
	Count   int     `json:"count"`
}

type ListOptions struct {
	Recursive     bool
	IncludeHidden bool
}

// List returns the entries of a directory, or of its whole subtree when
// Recursive is set. Directories come first, then names compared without
// case.
func (s *Store) List(path string, opts ListOptions) (ListResult, error) {
	const op = "list"

	target, err := s.resolve(op, path)
	if err != nil {
		return ListResult{}, err
	}
	info, err := s.statTarget(op, path, target)
	if err != nil {
		return ListResult{}, err
	}
	if !info.IsDir() {
		return ListResult{}, notDir(op, path)
	}

	var entries []Entry
	if opts.Recursive {
		err = filepath.WalkDir(target.Abs, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if p == target.Abs {
					return walkErr
				}
				s.logger.Warn("skipping unreadable entry", "path", s.guard.Rel(p), "error", walkErr)
				return nil
			}
			if p == target.Abs {
				return nil
			}
			if skip(d.Name(), opts.IncludeHidden) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if e, ok := s.entryFor(p, d); ok {
				entries = append(entries, e)
			}
			return nil
		})
	} else {
		var dirEntries []os.DirEntry
		dirEntries, err = os.ReadDir(target.Abs)
		for _, d := range dirEntries {
			if skip(d.Name(), opts.IncludeHidden) {
				continue
			}
			if e, ok := s.entryFor(filepath.Join(target.Abs, d.Name()), d); ok {
				entries = append(entries, e)
			}
		}
	}
	if err != nil {
		return ListResult{}, s.classify(op, path, err)
	}

	sortEntries(entries)
	if entries == nil {
		entries = []Entry{}
	}
	return ListResult{Path: target.Rel, Entries: entries, Count: len(entries)}, nil
}

func skip(name string, includeHidden bool) bool {
	if skipDirs[name] {
		return true
	}
	return hidden(name) && !includeHidden
}

func (s *Store) entryFor(abs string, d fs.DirEntry) (Entry, bool) {
	info, err := d.Info()
	if err != nil {
		s.logger.Warn("skipping entry", "path", s.guard.Rel(abs), "error", err)
		return Entry{}, false
	}
	e := Entry{
		Name:     d.Name(),
		Path:     s.guard.Rel(abs),
		Type:     TypeFile,
		Modified: info.ModTime(),
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		e.Type = TypeSymlink
	case info.IsDir():
		e.Type = TypeDirectory
	default:
		e.Size = info.Size()
		e.Extension = policy.Suffix(d.Name())
	}
	return e, true
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Type == TypeDirectory, entries[j].Type == TypeDirectory
		if di != dj {
			return di
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}
