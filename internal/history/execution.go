// Package history keeps the bounded, in-memory logs consulted for
// introspection: executed commands, visited paths and favorites. Every type
// is safe for concurrent use.
package history

import (
	"sync"
	"time"
)

const (
	// DefaultCapacity is the cap applied when a constructor gets a
	// non-positive size.
	DefaultCapacity = 50
	// DefaultListLimit is how many execution records callers get when they
	// do not ask for a specific number.
	DefaultListLimit = 10
)

// ExecutionRecord describes one process run that got as far as spawning,
// whatever its outcome. Error is set for timed-out, canceled and failed
// waits. It is never modified after Append.
type ExecutionRecord struct {
	ID        string        `json:"id"`
	Command   string        `json:"command"`
	Cwd       string        `json:"cwd"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Success   bool          `json:"success"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ExecutionHistory is a ring of the most recent records; the oldest record
// is evicted once the capacity is exceeded.
type ExecutionHistory struct {
	mu      sync.RWMutex
	records []ExecutionRecord
	maxSize int
}

func NewExecutionHistory(maxSize int) *ExecutionHistory {
	if maxSize <= 0 {
		maxSize = DefaultCapacity
	}
	return &ExecutionHistory{maxSize: maxSize}
}

func (h *ExecutionHistory) Append(rec ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if len(h.records) > h.maxSize {
		// copy so the evicted prefix does not pin the backing array
		trimmed := make([]ExecutionRecord, h.maxSize)
		copy(trimmed, h.records[len(h.records)-h.maxSize:])
		h.records = trimmed
	}
}

// List returns up to limit of the most recent records, oldest first. A
// non-positive limit returns everything held.
func (h *ExecutionHistory) List(limit int) []ExecutionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	result := make([]ExecutionRecord, limit)
	copy(result, h.records[len(h.records)-limit:])
	return result
}

func (h *ExecutionHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

func (h *ExecutionHistory) Cap() int { return h.maxSize }

func (h *ExecutionHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
