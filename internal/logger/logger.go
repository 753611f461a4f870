// Package logger writes the append-only JSONL audit trail and builds the
// diagnostic slog logger shared by the other packages.
package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/djklmr2025/cosmos-den/internal/redact"
)

// defaultMaxLogBytes is the size at which the audit log is rotated to
// "<path>.1". Only one generation is kept.
const defaultMaxLogBytes = 10 << 20

const (
	TypeCommand = "command"
	TypeFile    = "file"
)

type AuditEvent struct {
	ID             string   `json:"id"`
	Timestamp      string   `json:"timestamp"`
	Type           string   `json:"type"`
	Op             string   `json:"op"`
	Command        string   `json:"command,omitempty"`
	Args           []string `json:"args,omitempty"`
	Path           string   `json:"path,omitempty"`
	Cwd            string   `json:"cwd,omitempty"`
	Decision       string   `json:"decision"`
	Flagged        bool     `json:"flagged,omitempty"`
	TriggeredRules []string `json:"triggered_rules,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
	ExitCode       *int     `json:"exit_code,omitempty"`
	DurationMs     int64    `json:"duration_ms,omitempty"`
	TimedOut       bool     `json:"timed_out,omitempty"`
	Digest         string   `json:"digest,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// AuditLogger appends events to a JSONL file. A nil *AuditLogger discards
// everything, which keeps tests and one-shot CLI calls free of log plumbing.
type AuditLogger struct {
	path     string
	maxBytes int64

	mu   sync.Mutex
	file *os.File
	size int64
}

func New(path string) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	l := &AuditLogger{path: path, maxBytes: defaultMaxLogBytes}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *AuditLogger) open() error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	l.file = file
	l.size = info.Size()
	return nil
}

// Path returns the file the logger appends to.
func (l *AuditLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log redacts and appends event. ID and Timestamp are filled in when empty.
func (l *AuditLogger) Log(event AuditEvent) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return os.ErrClosed
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	event.Command = redact.String(event.Command)
	event.Args = redact.Args(event.Args)
	if event.Error != "" {
		event.Error = redact.String(event.Error)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if l.size >= l.maxBytes {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating audit log: %w", err)
		}
	}

	n, err := l.file.Write(data)
	l.size += int64(n)
	return err
}

func (l *AuditLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil
	if err := os.Rename(l.path, l.path+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return l.open()
}

func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// ReadEvents loads every parseable event from the log at path. A missing
// file is not an error; malformed lines are skipped.
func ReadEvents(path string) ([]AuditEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}
