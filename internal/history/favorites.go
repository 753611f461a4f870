package history

import "sync"

// Favorites is an ordered set of workspace paths.
type Favorites struct {
	mu    sync.Mutex
	paths []string
}

func NewFavorites() *Favorites {
	return &Favorites{}
}

// Add appends path unless it is already present and reports whether it was
// added.
func (f *Favorites) Add(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.paths {
		if p == path {
			return false
		}
	}
	f.paths = append(f.paths, path)
	return true
}

// Remove deletes path and reports whether it was present.
func (f *Favorites) Remove(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.paths {
		if p == path {
			f.paths = append(f.paths[:i], f.paths[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Favorites) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}
