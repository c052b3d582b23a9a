package common

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type Metrics struct {
	mu         sync.Mutex
	start      time.Time
	end        time.Time
	bytes      int64
	rows       int64
	degraded   int64
	files      int64
	failed     int64
	totalFiles int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Start() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
	m.mu.Unlock()
}

// AddRow counts one converted row of size input bytes.
func (m *Metrics) AddRow(size int64, degraded bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.rows++
	if size > 0 {
		m.bytes += size
	}
	if degraded {
		m.degraded++
	}
	m.mu.Unlock()
}

// FileDone counts a finished file.
func (m *Metrics) FileDone(ok bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.files++
	if !ok {
		m.failed++
	}
	m.mu.Unlock()
}

func (m *Metrics) SetTotalFiles(total int64) {
	if m == nil {
		return
	}
	if total < 0 {
		total = 0
	}
	m.mu.Lock()
	m.totalFiles = total
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Duration:   m.elapsedLocked(),
		Bytes:      m.bytes,
		Rows:       m.rows,
		Degraded:   m.degraded,
		Files:      m.files,
		Failed:     m.failed,
		TotalFiles: m.totalFiles,
	}
}

func (m *Metrics) elapsedLocked() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

type MetricsSnapshot struct {
	Duration   time.Duration
	Bytes      int64
	Rows       int64
	Degraded   int64
	Files      int64
	Failed     int64
	TotalFiles int64
}

func (s MetricsSnapshot) RowsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Rows) / s.Duration.Seconds()
}

func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div := float64(unit)
	exp := 0
	for n := float64(b) / div; n >= unit && exp < 6; n /= unit {
		div *= unit
		exp++
	}
	prefixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	return fmt.Sprintf("%.2f %s", float64(b)/div, prefixes[exp])
}

func formatProgressLine(s MetricsSnapshot) string {
	if s.TotalFiles > 0 {
		return fmt.Sprintf("Progress: %d/%d files, %d rows (%s) %.0f rows/s", s.Files, s.TotalFiles, s.Rows, FormatBytes(s.Bytes), s.RowsPerSecond())
	}
	return fmt.Sprintf("Processed: %d rows (%s) %.0f rows/s", s.Rows, FormatBytes(s.Bytes), s.RowsPerSecond())
}

func StartProgressPrinter(w io.Writer, m *Metrics, interval time.Duration) func() {
	if m == nil || w == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		lastLen := 0
		for {
			select {
			case <-ticker.C:
				line := formatProgressLine(m.Snapshot())
				pad := lastLen - len(line)
				if pad > 0 {
					line += strings.Repeat(" ", pad)
				}
				fmt.Fprintf(w, "\r%s", line)
				lastLen = len(line)
			case <-done:
				if lastLen > 0 {
					fmt.Fprintf(w, "\r%s\r\n", strings.Repeat(" ", lastLen))
				}
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
