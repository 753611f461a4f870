package filestore

import (
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/policy"
)

type ReadResult struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Size      int64     `json:"size"`
	Lines     int       `json:"lines"`
	Extension string    `json:"extension,omitempty"`
	Modified  time.Time `json:"modified"`
}

// Read returns a text file's content. Files above MaxReadBytes are refused
// with TooLarge and content that is not valid UTF-8 with EncodingError.
func (s *Store) Read(path string) (ReadResult, error) {
	const op = "read"

	target, err := s.resolve(op, path)
	if err != nil {
		return ReadResult{}, err
	}
	info, err := s.statTarget(op, path, target)
	if err != nil {
		return ReadResult{}, err
	}
	if !info.Mode().IsRegular() {
		return ReadResult{}, notFile(op, path)
	}
	if info.Size() > MaxReadBytes {
		return ReadResult{}, fault.New(fault.KindTooLarge, op, path, "file exceeds 10 MiB")
	}

	data, err := readLimited(target.Abs)
	if err != nil {
		return ReadResult{}, s.classify(op, path, err)
	}
	if len(data) > MaxReadBytes {
		return ReadResult{}, fault.New(fault.KindTooLarge, op, path, "file exceeds 10 MiB")
	}
	if !utf8.Valid(data) {
		return ReadResult{}, fault.New(fault.KindEncodingError, op, path, "")
	}

	content := string(data)
	return ReadResult{
		Path:      target.Rel,
		Content:   content,
		Size:      int64(len(data)),
		Lines:     countLines(content),
		Extension: policy.Suffix(target.Abs),
		Modified:  info.ModTime(),
	}, nil
}

// readLimited reads at most MaxReadBytes+1 bytes so a file that grows after
// the size check is still caught.
func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxReadBytes+1))
}

// countLines counts lines the way an editor shows them: a trailing newline
// does not start another line.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
