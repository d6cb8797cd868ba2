// Package ledger persists error entries across process invocations. A
// non-empty ledger signals that a previous run left unresolved errors
// behind, and a new session must surface them before proceeding.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is an append-only plain-text list of error message lines.
type Ledger struct {
	path string
}

// New creates a ledger backed by the file at path. The file is created
// lazily on the first Record.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Record appends one error message line. Embedded newlines are flattened so
// one call always produces exactly one entry.
func (l *Ledger) Record(message string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	message = strings.ReplaceAll(message, "\n", " ")
	if _, err := fmt.Fprintln(f, message); err != nil {
		return fmt.Errorf("writing ledger entry: %w", err)
	}
	return nil
}

// HasPending reports whether unresolved entries exist.
func (l *Ledger) HasPending() bool {
	entries, err := l.ListPending()
	return err == nil && len(entries) > 0
}

// ListPending returns all recorded entries in order.
func (l *Ledger) ListPending() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return entries, nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing ledger: %w", err)
	}
	return nil
}
