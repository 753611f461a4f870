package history

import (
	"sync"
	"time"
)

type Visit struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// NavigationHistory holds recently visited workspace paths, most recent
// first. Visiting a path again moves it to the front.
type NavigationHistory struct {
	mu      sync.Mutex
	visits  []Visit
	maxSize int
	now     func() time.Time
}

func NewNavigationHistory(maxSize int) *NavigationHistory {
	if maxSize <= 0 {
		maxSize = DefaultCapacity
	}
	return &NavigationHistory{maxSize: maxSize, now: time.Now}
}

func (n *NavigationHistory) Record(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, v := range n.visits {
		if v.Path == path {
			n.visits = append(n.visits[:i], n.visits[i+1:]...)
			break
		}
	}
	n.visits = append([]Visit{{Path: path, At: n.now()}}, n.visits...)
	if len(n.visits) > n.maxSize {
		n.visits = n.visits[:n.maxSize]
	}
}

func (n *NavigationHistory) List() []Visit {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Visit(nil), n.visits...)
}

// Restore replaces the history with visits, most recent first, keeping the
// first occurrence of each path and at most the capacity.
func (n *NavigationHistory) Restore(visits []Visit) {
	n.mu.Lock()
	defer n.mu.Unlock()

	seen := make(map[string]bool, len(visits))
	n.visits = n.visits[:0]
	for _, v := range visits {
		if v.Path == "" || seen[v.Path] {
			continue
		}
		seen[v.Path] = true
		n.visits = append(n.visits, v)
		if len(n.visits) == n.maxSize {
			break
		}
	}
}
