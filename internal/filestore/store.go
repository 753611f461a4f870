// Package filestore performs file and directory operations inside the
// workspace. Every entry point resolves its path through the guard before
// any I/O and reports failures as *fault.Error values.
package filestore

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/history"
	"github.com/djklmr2025/cosmos-den/internal/logger"
	"github.com/djklmr2025/cosmos-den/internal/pathguard"
	"github.com/djklmr2025/cosmos-den/internal/policy"
)

const (
	// MaxReadBytes bounds read and content search.
	MaxReadBytes = 10 << 20
	// MaxMatchesPerFile bounds content-search hits reported for one file.
	MaxMatchesPerFile = 10
	// MaxSearchResults bounds the number of files a search reports.
	MaxSearchResults = 1000
	// DefaultTreeDepth applies when Tree is called with a non-positive depth.
	DefaultTreeDepth = 3
	// TrashDir is the workspace-relative directory deleted entries move to.
	TrashDir = ".trash"
)

// skipDirs are never listed, searched or descended into, hidden or not.
var skipDirs = map[string]bool{
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
}

const (
	TypeFile      = "file"
	TypeDirectory = "directory"
	TypeSymlink   = "symlink"
	TypeMore      = "more"
	// TypeOther covers FIFOs, sockets and device nodes.
	TypeOther = "other"
)

// Options wires a Store. Guard and Extensions are required.
type Options struct {
	Guard      *pathguard.Guard
	Extensions *policy.ExtensionPolicy
	Navigation *history.NavigationHistory
	Favorites  *history.Favorites
	Audit      *logger.AuditLogger
	Logger     *slog.Logger
}

type Store struct {
	guard     *pathguard.Guard
	exts      *policy.ExtensionPolicy
	nav       *history.NavigationHistory
	favorites *history.Favorites
	audit     *logger.AuditLogger
	logger    *slog.Logger
	now       func() time.Time

	trashMu sync.Mutex
}

func New(opts Options) (*Store, error) {
	if opts.Guard == nil {
		return nil, errors.New("filestore: guard is required")
	}
	s := &Store{
		guard:     opts.Guard,
		exts:      opts.Extensions,
		nav:       opts.Navigation,
		favorites: opts.Favorites,
		audit:     opts.Audit,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if s.exts == nil {
		s.exts = policy.NewExtensionPolicy()
	}
	if s.nav == nil {
		s.nav = history.NewNavigationHistory(0)
	}
	if s.favorites == nil {
		s.favorites = history.NewFavorites()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Root returns the resolved workspace root.
func (s *Store) Root() string { return s.guard.Root() }

// resolve runs the guard and records a rejection in the audit trail.
func (s *Store) resolve(op, path string) (pathguard.Target, error) {
	target, ok := s.guard.Resolve(path)
	if !ok {
		s.record(op, path, "BLOCK", "", fault.Rejected(op, path))
		return pathguard.Target{}, fault.Rejected(op, path)
	}
	return target, nil
}

// classify maps an OS error to the fault taxonomy. Unclassified errors are
// logged with their detail and surface as Unexpected.
func (s *Store) classify(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fault.Wrap(fault.KindNotFound, op, path, err)
	case errors.Is(err, fs.ErrExist):
		return fault.Wrap(fault.KindAlreadyExists, op, path, err)
	case errors.Is(err, syscall.ENOTDIR):
		return &fault.Error{Kind: fault.KindInvalidRequest, Op: op, Path: path, Detail: "not a directory", Err: err}
	case errors.Is(err, syscall.EISDIR):
		return &fault.Error{Kind: fault.KindInvalidRequest, Op: op, Path: path, Detail: "is a directory", Err: err}
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	s.logger.Error("file operation failed", "op", op, "path", path, "error", err)
	return fault.Wrap(fault.KindUnexpected, op, path, err)
}

// record writes a file event to the audit trail. Write failures are only
// logged.
func (s *Store) record(op, path, decision, digest string, opErr error) {
	if s.audit == nil {
		return
	}
	event := logger.AuditEvent{
		Type:     logger.TypeFile,
		Op:       op,
		Path:     path,
		Decision: decision,
		Digest:   digest,
	}
	if opErr != nil {
		event.Error = fault.Message(opErr)
	}
	if err := s.audit.Log(event); err != nil {
		s.logger.Warn("audit log write failed", "op", op, "error", err)
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func notFile(op, path string) error {
	return fault.New(fault.KindInvalidRequest, op, path, "not a file")
}

func notDir(op, path string) error {
	return fault.New(fault.KindInvalidRequest, op, path, "not a directory")
}

// statTarget stats an accepted target, mapping a missing path to NotFound.
func (s *Store) statTarget(op, path string, target pathguard.Target) (os.FileInfo, error) {
	info, err := os.Stat(target.Abs)
	if err != nil {
		return nil, s.classify(op, path, err)
	}
	return info, nil
}
