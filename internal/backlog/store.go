package backlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/mark3labs/sprintr/internal/logger"
)

// Store reads and writes the durable backlog file. Writes are
// write-then-atomically-replace so a crash mid-save never corrupts the
// backlog; repeated saves of unchanged data are byte-identical.
type Store struct {
	path string
}

// NewStore creates a store for the backlog file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backlog file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the backlog file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load deserializes the backlog. Unreadable structure or an ID collision is
// a *CorruptBacklogError.
func (s *Store) Load() (*Backlog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading backlog: %w", err)
	}

	var b Backlog
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &CorruptBacklogError{Path: s.path, Reason: err.Error()}
	}
	if err := b.Validate(); err != nil {
		var ce *CorruptBacklogError
		if errors.As(err, &ce) {
			ce.Path = s.path
		}
		return nil, err
	}

	logger.Debug("Loaded backlog %s: %d stories, %d modules", s.path, len(b.Stories), len(b.Modules()))
	return &b, nil
}

// Save serializes the backlog deterministically (fixed field order, 2-space
// indent, trailing newline) and replaces the file atomically.
func (s *Store) Save(b *Backlog) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing backlog: %w", err)
	}
	logger.Debug("Saved backlog %s (%d bytes)", s.path, len(data))
	return nil
}

// Marshal renders the backlog in its canonical on-disk form.
func Marshal(b *Backlog) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling backlog: %w", err)
	}
	return append(data, '\n'), nil
}
