package filestore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/djklmr2025/cosmos-den/internal/fault"
)

type WriteResult struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	Digest  string `json:"digest"`
	Created bool   `json:"created"`
	Backup  string `json:"backup,omitempty"`
}

type MkdirResult struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

// Create writes a new file, creating missing parent directories. An
// existing file is only replaced when overwrite is set, and then through a
// temp file and rename.
func (s *Store) Create(path, content string, overwrite bool) (WriteResult, error) {
	const op = "create"

	target, err := s.resolve(op, path)
	if err != nil {
		return WriteResult{}, err
	}
	if target.IsRoot() {
		return WriteResult{}, notFile(op, path)
	}
	if !s.exts.AllowsCreate(target.Abs) {
		s.record(op, path, "BLOCK", "", fault.Rejected(op, path))
		return WriteResult{}, &fault.Error{Kind: fault.KindPolicyRejected, Op: op, Path: path, Detail: "file extension not permitted"}
	}

	perm := os.FileMode(0644)
	existed := false
	if info, err := os.Lstat(target.Abs); err == nil {
		if info.IsDir() {
			return WriteResult{}, notFile(op, path)
		}
		if !overwrite {
			return WriteResult{}, fault.New(fault.KindAlreadyExists, op, path, "")
		}
		existed = true
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return WriteResult{}, s.classify(op, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(target.Abs), 0755); err != nil {
		return WriteResult{}, s.classify(op, path, err)
	}
	data := []byte(content)
	if err := atomicWrite(target.Abs, data, perm); err != nil {
		return WriteResult{}, s.classify(op, path, err)
	}

	result := WriteResult{
		Path:    target.Rel,
		Size:    int64(len(data)),
		Digest:  digest(data),
		Created: !existed,
	}
	s.logger.Info("file written", "path", target.Rel, "size", result.Size, "created", result.Created)
	s.record(op, target.Rel, "ALLOW", result.Digest, nil)
	return result, nil
}

// Update replaces an existing file's content after copying the old bytes to
// a ".bak" sibling. Only the most recent backup is kept.
func (s *Store) Update(path, content string) (WriteResult, error) {
	const op = "update"

	target, err := s.resolve(op, path)
	if err != nil {
		return WriteResult{}, err
	}
	info, err := s.statTarget(op, path, target)
	if err != nil {
		return WriteResult{}, err
	}
	if !info.Mode().IsRegular() {
		return WriteResult{}, notFile(op, path)
	}

	old, err := os.ReadFile(target.Abs)
	if err != nil {
		return WriteResult{}, s.classify(op, path, err)
	}
	perm := info.Mode().Perm()
	backup := target.Abs + ".bak"
	if err := atomicWrite(backup, old, perm); err != nil {
		return WriteResult{}, s.classify(op, path, err)
	}

	data := []byte(content)
	if err := atomicWrite(target.Abs, data, perm); err != nil {
		return WriteResult{}, s.classify(op, path, err)
	}

	result := WriteResult{
		Path:   target.Rel,
		Size:   int64(len(data)),
		Digest: digest(data),
		Backup: s.guard.Rel(backup),
	}
	s.logger.Info("file updated", "path", target.Rel, "size", result.Size, "backup", result.Backup)
	s.record(op, target.Rel, "ALLOW", result.Digest, nil)
	return result, nil
}

// Mkdir creates path and any missing parents. An existing directory is not
// an error.
func (s *Store) Mkdir(path string) (MkdirResult, error) {
	const op = "mkdir"

	target, err := s.resolve(op, path)
	if err != nil {
		return MkdirResult{}, err
	}
	if info, err := os.Stat(target.Abs); err == nil {
		if !info.IsDir() {
			return MkdirResult{}, fault.New(fault.KindAlreadyExists, op, path, "a file with that name exists")
		}
		return MkdirResult{Path: target.Rel}, nil
	}
	if err := os.MkdirAll(target.Abs, 0755); err != nil {
		return MkdirResult{}, s.classify(op, path, err)
	}
	s.record(op, target.Rel, "ALLOW", "", nil)
	return MkdirResult{Path: target.Rel, Created: true}, nil
}
