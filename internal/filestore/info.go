package filestore

import (
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/djklmr2025/cosmos-den/internal/policy"
)

type Info struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	SizeHuman   string    `json:"size_human"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Extension   string    `json:"extension,omitempty"`
	Permissions string    `json:"permissions"`
	Lines       *int      `json:"lines,omitempty"`
	Characters  *int      `json:"characters,omitempty"`
	Digest      string    `json:"digest,omitempty"`
}

// Info describes a file or directory. Digests and text statistics are only
// computed for regular files; text statistics additionally need an allowed
// extension and valid UTF-8.
func (s *Store) Info(path string) (Info, error) {
	const op = "info"

	target, err := s.resolve(op, path)
	if err != nil {
		return Info{}, err
	}
	fi, err := s.statTarget(op, path, target)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Name:        filepath.Base(target.Abs),
		Path:        target.Rel,
		Type:        TypeFile,
		Size:        fi.Size(),
		SizeHuman:   humanize.IBytes(uint64(fi.Size())),
		Created:     createdTime(target.Abs, fi),
		Modified:    fi.ModTime(),
		Permissions: fi.Mode().Perm().String(),
	}
	info.Extension = policy.Suffix(target.Abs)
	switch {
	case fi.IsDir():
		info.Type = TypeDirectory
		info.Extension = ""
		return info, nil
	case !fi.Mode().IsRegular():
		// opening a FIFO blocks until a writer appears
		info.Type = TypeOther
		return info, nil
	}

	if sum, err := digestFile(target.Abs); err == nil {
		info.Digest = sum
	} else {
		s.logger.Warn("digest failed", "path", target.Rel, "error", err)
	}

	if info.Extension != "" && s.exts.Allowed(info.Extension) && fi.Size() <= MaxReadBytes {
		if data, err := os.ReadFile(target.Abs); err == nil && utf8.Valid(data) {
			lines := countLines(string(data))
			chars := utf8.RuneCount(data)
			info.Lines = &lines
			info.Characters = &chars
		}
	}
	return info, nil
}
