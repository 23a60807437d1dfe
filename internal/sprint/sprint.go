// Package sprint implements the bounded working subset of the backlog: its
// extraction, the module auto-selection policy, and the monotonic sync of
// completion state back into the backlog.
package sprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/story"
)

// MaxSprintKB is the soft size limit for the sprint file. Larger sprints
// still work but degrade agent performance, so extraction surfaces a warning.
const MaxSprintKB = 80

// Sprint is a named, bounded copy of the stories of one or more modules.
// Only the Passes flags are mutated after extraction; everything else is a
// snapshot of the backlog at extraction time.
type Sprint struct {
	Project     string        `json:"project"`
	BranchName  string        `json:"branchName"`
	Description string        `json:"description"`
	Stories     []story.Story `json:"userStories"`
}

// Complete reports whether every story in the sprint passes. This is the
// loop signal: it is independent of backlog state so the orchestrator can
// decide to request the next sprint without a backlog round-trip.
func (sp *Sprint) Complete() bool {
	for i := range sp.Stories {
		if !sp.Stories[i].Passes {
			return false
		}
	}
	return len(sp.Stories) > 0
}

// Remaining returns the count of stories not yet passing.
func (sp *Sprint) Remaining() int {
	n := 0
	for i := range sp.Stories {
		if !sp.Stories[i].Passes {
			n++
		}
	}
	return n
}

// Find returns a pointer to the sprint story with the given ID, or nil.
func (sp *Sprint) Find(id string) *story.Story {
	for i := range sp.Stories {
		if sp.Stories[i].ID == id {
			return &sp.Stories[i]
		}
	}
	return nil
}

// File reads and writes the durable sprint file with the same atomic-replace
// discipline as the backlog store.
type File struct {
	path string
}

// NewFile creates a sprint file handle at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the sprint file path.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether a sprint file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Size returns the sprint file size in bytes, or 0 if absent.
func (f *File) Size() int64 {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Load deserializes the sprint file.
func (f *File) Load() (*Sprint, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading sprint: %w", err)
	}
	var sp Sprint
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parsing sprint %s: %w", f.path, err)
	}
	return &sp, nil
}

// Save serializes the sprint deterministically and replaces the file
// atomically.
func (f *File) Save(sp *Sprint) error {
	data, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sprint: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing sprint: %w", err)
	}
	logger.Debug("Saved sprint %s (%d bytes, branch %s)", f.path, len(data), sp.BranchName)
	return nil
}
