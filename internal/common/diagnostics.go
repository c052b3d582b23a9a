package common

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Diagnostic describes one input row whose fields fell back to defaults.
type Diagnostic struct {
	File   string    `json:"file"`
	Row    int       `json:"row"`
	Fields []string  `json:"fields"`
	Ts     time.Time `json:"ts"`
}

// DiagnosticLog appends diagnostics to a JSONL file, one object per line.
type DiagnosticLog struct {
	path    string
	mu      sync.Mutex
	f       *os.File
	w       *bufio.Writer
	entries int
}

// OpenDiagnosticLog truncates or creates the file at path.
func OpenDiagnosticLog(path string) (*DiagnosticLog, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &DiagnosticLog{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the backing file path for the log.
func (l *DiagnosticLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Entries returns how many diagnostics were appended.
func (l *DiagnosticLog) Entries() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

// Append writes d as a single line. A nil log discards the entry.
func (l *DiagnosticLog) Append(d Diagnostic) error {
	if l == nil {
		return nil
	}
	if d.Ts.IsZero() {
		d.Ts = time.Now().UTC()
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return errors.New("diagnostic log closed")
	}
	if _, err := l.w.Write(append(data, '\n')); err != nil {
		return err
	}
	l.entries++
	return nil
}

// Close flushes and closes the file.
func (l *DiagnosticLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Flush()
	l.w = nil
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadDiagnostics loads every entry from the supplied JSONL file.
func ReadDiagnostics(path string) ([]Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var entries []Diagnostic
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var d Diagnostic
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return nil, fmt.Errorf("decode diagnostic: %w", err)
		}
		entries = append(entries, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
