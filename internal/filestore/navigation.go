package filestore

import (
	"github.com/djklmr2025/cosmos-den/internal/history"
)

type WatchResult struct {
	Path         string `json:"path"`
	ReadyToWatch bool   `json:"ready_for_watch"`
}

type FavoriteResult struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
}

// Watch checks that path is an existing file and records it as visited.
// Actual change notification is left to the caller.
func (s *Store) Watch(path string) (WatchResult, error) {
	const op = "watch"

	target, err := s.resolve(op, path)
	if err != nil {
		return WatchResult{}, err
	}
	info, err := s.statTarget(op, path, target)
	if err != nil {
		return WatchResult{}, err
	}
	if !info.Mode().IsRegular() {
		return WatchResult{}, notFile(op, path)
	}
	s.nav.Record(target.Rel)
	return WatchResult{Path: target.Rel, ReadyToWatch: true}, nil
}

// Visit records path in the navigation history after checking it exists.
func (s *Store) Visit(path string) (string, error) {
	const op = "visit"

	target, err := s.resolve(op, path)
	if err != nil {
		return "", err
	}
	if _, err := s.statTarget(op, path, target); err != nil {
		return "", err
	}
	s.nav.Record(target.Rel)
	return target.Rel, nil
}

func (s *Store) NavigationHistory() []history.Visit {
	return s.nav.List()
}

// AddFavorite bookmarks an existing path. Adding it twice is not an error.
func (s *Store) AddFavorite(path string) (FavoriteResult, error) {
	const op = "favorite_add"

	target, err := s.resolve(op, path)
	if err != nil {
		return FavoriteResult{}, err
	}
	if _, err := s.statTarget(op, path, target); err != nil {
		return FavoriteResult{}, err
	}
	return FavoriteResult{Path: target.Rel, Changed: s.favorites.Add(target.Rel)}, nil
}

// RemoveFavorite drops a bookmark. The path does not have to exist any
// more, so it is only normalised through the guard.
func (s *Store) RemoveFavorite(path string) (FavoriteResult, error) {
	const op = "favorite_remove"

	target, err := s.resolve(op, path)
	if err != nil {
		return FavoriteResult{}, err
	}
	return FavoriteResult{Path: target.Rel, Changed: s.favorites.Remove(target.Rel)}, nil
}

func (s *Store) Favorites() []string {
	return s.favorites.List()
}
