// Package archive provides sprint housekeeping: retired sprint files and the
// cumulative learnings log are kept under the data directory, never deleted.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/mark3labs/sprintr/internal/logger"
)

// Sprint moves a retired sprint file into <dataDir>/archive/ under a name
// derived from its branch and a timestamp. A missing source is a no-op so
// the loop can call this unconditionally.
func Sprint(dataDir, sprintPath, branch string) (string, error) {
	if _, err := os.Stat(sprintPath); os.IsNotExist(err) {
		return "", nil
	}

	dir := filepath.Join(dataDir, "archive")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}

	name := slug.Make(branch)
	if name == "" {
		name = "sprint"
	}
	dest := filepath.Join(dir, fmt.Sprintf("%s-%s.json", name, time.Now().Format("20060102-150405")))

	if err := os.Rename(sprintPath, dest); err != nil {
		return "", fmt.Errorf("archiving sprint: %w", err)
	}
	logger.Info("Archived sprint %s -> %s", sprintPath, dest)
	return dest, nil
}

// Learnings is the cumulative append-only learnings log carried across
// sprints.
type Learnings struct {
	path string
}

// NewLearnings opens the learnings log under dataDir.
func NewLearnings(dataDir string) *Learnings {
	return &Learnings{path: filepath.Join(dataDir, "learnings.md")}
}

// Path returns the log file path.
func (l *Learnings) Path() string {
	return l.path
}

// Append adds one dated entry.
func (l *Learnings) Append(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return fmt.Errorf("empty learning")
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening learnings log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("- %s %s\n", time.Now().Format("2006-01-02"), strings.TrimSpace(entry))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending learning: %w", err)
	}
	return nil
}

// Tail returns up to n most recent entries, oldest first.
func (l *Learnings) Tail(n int) []string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			entries = append(entries, strings.TrimPrefix(line, "- "))
		}
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}

// Snapshot copies the learnings log next to an archived sprint so the pair
// stays reviewable together. Missing log is a no-op.
func (l *Learnings) Snapshot(archivedSprint string) error {
	if archivedSprint == "" {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading learnings log: %w", err)
	}
	dest := strings.TrimSuffix(archivedSprint, ".json") + "-learnings.md"
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("snapshotting learnings: %w", err)
	}
	return nil
}
