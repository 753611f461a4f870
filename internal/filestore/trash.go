package filestore

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/pathguard"
)

const manifestFile = "manifest.jsonl"

type DeleteResult struct {
	Path      string `json:"path"`
	TrashPath string `json:"trash_path"`
	Type      string `json:"type"`
	Digest    string `json:"digest,omitempty"`
}

// TrashEntry is one line of the trash manifest.
type TrashEntry struct {
	Original  string    `json:"original"`
	Trash     string    `json:"trash"`
	Type      string    `json:"type"`
	Digest    string    `json:"digest,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

// Delete moves path into the workspace trash. Nothing happens unless
// confirm is set. The named entry itself is moved: deleting a symlink moves
// the link, not what it points to.
func (s *Store) Delete(p string, confirm bool) (DeleteResult, error) {
	const op = "delete"

	if !confirm {
		return DeleteResult{}, fault.New(fault.KindInvalidRequest, op, p, "confirmation required")
	}

	full, err := s.resolve(op, p)
	if err != nil {
		return DeleteResult{}, err
	}
	entry, err := s.entry(op, p)
	if err != nil {
		return DeleteResult{}, err
	}
	if full.IsRoot() || entry.IsRoot() {
		return DeleteResult{}, fault.New(fault.KindInvalidRequest, op, p, "cannot delete the workspace root")
	}
	if entry.Rel == TrashDir || strings.HasPrefix(entry.Rel, TrashDir+"/") {
		return DeleteResult{}, fault.New(fault.KindInvalidRequest, op, p, "already in trash")
	}

	info, err := os.Lstat(entry.Abs)
	if err != nil {
		return DeleteResult{}, s.classify(op, p, err)
	}

	kind := TypeFile
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		kind = TypeSymlink
	case info.IsDir():
		kind = TypeDirectory
	}

	var sum string
	if info.Mode().IsRegular() {
		if sum, err = digestFile(entry.Abs); err != nil {
			return DeleteResult{}, s.classify(op, p, err)
		}
	}

	s.trashMu.Lock()
	defer s.trashMu.Unlock()

	trashDir := filepath.Join(s.guard.Root(), TrashDir)
	if err := os.MkdirAll(trashDir, 0755); err != nil {
		return DeleteResult{}, s.classify(op, p, err)
	}
	dest := filepath.Join(trashDir, s.trashName(filepath.Base(entry.Abs)))
	if err := os.Rename(entry.Abs, dest); err != nil {
		return DeleteResult{}, s.classify(op, p, err)
	}

	result := DeleteResult{
		Path:      entry.Rel,
		TrashPath: s.guard.Rel(dest),
		Type:      kind,
		Digest:    sum,
	}
	if err := s.appendManifest(trashDir, TrashEntry{
		Original:  result.Path,
		Trash:     result.TrashPath,
		Type:      kind,
		Digest:    sum,
		DeletedAt: s.now().UTC(),
	}); err != nil {
		s.logger.Warn("trash manifest write failed", "error", err)
	}

	s.logger.Info("moved to trash", "path", result.Path, "trash", result.TrashPath)
	s.record(op, result.Path, "ALLOW", sum, nil)
	return result, nil
}

// entry resolves the parent of p through the guard and joins the final
// element without following it.
func (s *Store) entry(op, p string) (pathguard.Target, error) {
	clean := filepath.Clean(p)
	base := filepath.Base(clean)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return pathguard.Target{Rel: "."}, nil
	}
	parent, err := s.resolve(op, filepath.Dir(clean))
	if err != nil {
		return pathguard.Target{}, err
	}
	rel := path.Join(parent.Rel, base)
	return pathguard.Target{Abs: filepath.Join(parent.Abs, base), Rel: rel}, nil
}

// trashName is stem_YYYYmmdd_HHMMSS_<id>.ext; the random suffix keeps two
// deletions of the same name within one second apart.
func (s *Store) trashName(name string) string {
	ext := ""
	if !strings.HasPrefix(name, ".") || strings.Count(name, ".") > 1 {
		ext = filepath.Ext(name)
	}
	stem := strings.TrimSuffix(name, ext)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return stem + "_" + s.now().Format("20060102_150405") + "_" + id + ext
}

func (s *Store) appendManifest(trashDir string, entry TrashEntry) error {
	f, err := os.OpenFile(filepath.Join(trashDir, manifestFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// TrashManifest returns the recorded deletions, oldest first.
func (s *Store) TrashManifest() ([]TrashEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.guard.Root(), TrashDir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, s.classify("trash", TrashDir, err)
	}
	var entries []TrashEntry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e TrashEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
