// Package episode writes the per-episode progress log.
package episode

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/drills/pkg/domain"
)

// FileName is the name of the log inside an episode directory.
const FileName = "log.csv"

const sep = ", "

// Log is the comma-separated progress log of one episode. Every write is
// flushed so the file can be followed while the episode runs.
type Log struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	w      *bufio.Writer
	closed bool
}

// Open creates dir/log.csv, truncating any previous log, and writes the header.
func Open(dir, primaryLabel, constraintLabel string) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create episode directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create episode log: %w", err)
	}

	l := &Log{path: path, file: f, w: bufio.NewWriter(f)}
	header := []string{
		"iteration", "optimization", primaryLabel, constraintLabel,
		"best_meets_constraint", "best_primary", "best_constraint",
	}
	if err := l.writeLine(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the location of the log file.
func (l *Log) Path() string {
	return l.path
}

// WriteInitial records the run performed by a reset.
func (l *Log) WriteInitial(iteration int, transformation string, m domain.Metrics) error {
	return l.writeLine(runFields(iteration, transformation, m))
}

// WriteStep records a step run together with the current best-known records.
func (l *Log) WriteStep(iteration int, transformation string, m domain.Metrics, r domain.Records) error {
	fields := runFields(iteration, transformation, m)
	fields = append(fields, FormatRecord(r.MeetsConstraint), FormatRecord(r.Primary), FormatRecord(r.Constraint))
	return l.writeLine(fields)
}

// Close flushes and closes the file. Closing twice is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	flushErr := l.w.Flush()
	closeErr := l.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (l *Log) writeLine(fields []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("episode log %s is closed", l.path)
	}
	if _, err := l.w.WriteString(strings.Join(fields, sep) + "\n"); err != nil {
		return fmt.Errorf("failed to write episode log: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush episode log: %w", err)
	}
	return nil
}

func runFields(iteration int, transformation string, m domain.Metrics) []string {
	return []string{strconv.Itoa(iteration), transformation, FormatFloat(m.Primary), FormatFloat(m.Constraint)}
}

// FormatRecord renders a record as `optimization; constraint; episode; iteration`.
func FormatRecord(r domain.Record) string {
	return strings.Join([]string{
		FormatFloat(r.Optimization),
		FormatFloat(r.Constraint),
		strconv.Itoa(r.Episode),
		strconv.Itoa(r.Iteration),
	}, "; ")
}

// FormatFloat uses the shortest representation that round-trips.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
