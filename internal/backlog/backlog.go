// Package backlog holds the full durable collection of stories across all
// modules. The backlog file is the source of truth for completion state once
// a sync has occurred.
package backlog

import (
	"fmt"

	"github.com/mark3labs/sprintr/internal/story"
)

// Backlog is the ordered collection of all stories, keyed by unique ID.
// Order is import order and stays stable across syncs.
type Backlog struct {
	Project    string        `json:"project"`
	BranchName string        `json:"branchName,omitempty"` // Display-only label
	Stories    []story.Story `json:"userStories"`
}

// Validate enforces the backlog invariants: every ID is unique and every
// story belongs to exactly one module. Returns *CorruptBacklogError on a
// collision.
func (b *Backlog) Validate() error {
	seen := make(map[string]bool, len(b.Stories))
	for i := range b.Stories {
		s := &b.Stories[i]
		if seen[s.ID] {
			return &CorruptBacklogError{Reason: fmt.Sprintf("duplicate story id %s", s.ID)}
		}
		seen[s.ID] = true
		if s.Module() == "" {
			return &CorruptBacklogError{Reason: fmt.Sprintf("story id %q does not match US-###-##+", s.ID)}
		}
	}
	return nil
}

// Modules returns the distinct module codes in first-seen (import) order.
func (b *Backlog) Modules() []string {
	var order []string
	seen := make(map[string]bool)
	for i := range b.Stories {
		m := b.Stories[i].Module()
		if !seen[m] {
			seen[m] = true
			order = append(order, m)
		}
	}
	return order
}

// HasModule reports whether any story belongs to the given module.
func (b *Backlog) HasModule(module string) bool {
	for i := range b.Stories {
		if b.Stories[i].Module() == module {
			return true
		}
	}
	return false
}

// StoriesForModule returns the ordered subsequence of stories belonging to
// the given module.
func (b *Backlog) StoriesForModule(module string) []story.Story {
	var out []story.Story
	for i := range b.Stories {
		if b.Stories[i].Module() == module {
			out = append(out, b.Stories[i])
		}
	}
	return out
}

// CompletionStats returns (complete, total) counts for a module.
func (b *Backlog) CompletionStats(module string) (complete, total int) {
	for i := range b.Stories {
		if b.Stories[i].Module() != module {
			continue
		}
		total++
		if b.Stories[i].Passes {
			complete++
		}
	}
	return complete, total
}

// Complete reports the terminal condition: every story in every module
// passes.
func (b *Backlog) Complete() bool {
	for i := range b.Stories {
		if !b.Stories[i].Passes {
			return false
		}
	}
	return len(b.Stories) > 0
}

// Find returns a pointer to the story with the given ID, or nil.
func (b *Backlog) Find(id string) *story.Story {
	for i := range b.Stories {
		if b.Stories[i].ID == id {
			return &b.Stories[i]
		}
	}
	return nil
}

// CorruptBacklogError reports durable backlog state that is unreadable or
// violates the uniqueness invariant. Fatal: no partial recovery is attempted.
type CorruptBacklogError struct {
	Path   string
	Reason string
}

func (e *CorruptBacklogError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt backlog %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("corrupt backlog: %s", e.Reason)
}
