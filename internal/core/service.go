// Package core builds the workspace service: one guard, one command gate and
// one set of histories shared by the file store and the process runner.
package core

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/djklmr2025/cosmos-den/internal/config"
	"github.com/djklmr2025/cosmos-den/internal/filestore"
	"github.com/djklmr2025/cosmos-den/internal/history"
	"github.com/djklmr2025/cosmos-den/internal/logger"
	"github.com/djklmr2025/cosmos-den/internal/pathguard"
	"github.com/djklmr2025/cosmos-den/internal/policy"
	"github.com/djklmr2025/cosmos-den/internal/runner"
)

// Service owns every component for one workspace. Build it once at startup
// and share it; the components it holds are safe for concurrent use.
type Service struct {
	Config     *config.Config
	Policy     *policy.Policy
	Packs      []policy.PackInfo
	Guard      *pathguard.Guard
	Gate       *policy.Gate
	Extensions *policy.ExtensionPolicy
	Executions *history.ExecutionHistory
	Navigation *history.NavigationHistory
	Favorites  *history.Favorites
	Audit      *logger.AuditLogger
	Store      *filestore.Store
	Runner     *runner.Runner
	Logger     *slog.Logger
	StartedAt  time.Time

	statePath string
}

// New wires a Service from cfg. The audit log is opened here; callers must
// Close the service when done.
func New(cfg *config.Config, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	pol, packs, err := policy.LoadPacks(cfg.PacksDir, pol)
	if err != nil {
		return nil, fmt.Errorf("loading policy packs: %w", err)
	}
	for _, p := range packs {
		if p.Error != "" {
			log.Warn("policy pack skipped", "pack", p.Name, "error", p.Error)
		}
	}

	forbidden := append(pathguard.DefaultForbidden(), cfg.ForbiddenPaths...)
	guard, err := pathguard.New(cfg.Workspace, forbidden, log.With("component", "pathguard"))
	if err != nil {
		return nil, err
	}

	audit, err := logger.New(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	s := &Service{
		Config:     cfg,
		Policy:     pol,
		Packs:      packs,
		Guard:      guard,
		Gate:       policy.NewGate(pol),
		Extensions: policy.NewExtensionPolicy(pol.Extensions, cfg.AllowedExtensions),
		Executions: history.NewExecutionHistory(cfg.HistoryLimit),
		Navigation: history.NewNavigationHistory(cfg.HistoryLimit),
		Favorites:  history.NewFavorites(),
		Audit:      audit,
		Logger:     log,
		StartedAt:  time.Now(),
	}
	if cfg.ConfigDir != "" {
		s.statePath = filepath.Join(cfg.ConfigDir, StateFile)
	}
	s.restoreState()

	s.Store, err = filestore.New(filestore.Options{
		Guard:      guard,
		Extensions: s.Extensions,
		Navigation: s.Navigation,
		Favorites:  s.Favorites,
		Audit:      audit,
		Logger:     log.With("component", "filestore"),
	})
	if err != nil {
		audit.Close()
		return nil, err
	}

	s.Runner, err = runner.New(runner.Options{
		Gate:           s.Gate,
		Guard:          guard,
		History:        s.Executions,
		Audit:          audit,
		Logger:         log.With("component", "runner"),
		DefaultTimeout: cfg.DefaultTimeout(),
		TrackChanges:   cfg.TrackChanges,
	})
	if err != nil {
		audit.Close()
		return nil, err
	}

	log.Debug("service ready", "workspace", guard.Root(), "commands", len(pol.Allow), "packs", len(packs))
	return s, nil
}

// Close saves favorites and navigation history and closes the audit log.
func (s *Service) Close() error {
	if err := s.SaveState(); err != nil {
		s.Logger.Warn("saving state failed", "path", s.statePath, "error", err)
	}
	return s.Audit.Close()
}
