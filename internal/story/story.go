// Package story defines the atomic unit of work: a user story with a
// completion flag. Stories are validated once at import time and are
// immutable afterwards except for the Passes flag.
package story

import (
	"fmt"
	"regexp"
	"strings"
)

// IDPattern matches story identifiers: a module group code (3-digit,
// zero-padded) followed by a 2+ digit ordinal, e.g. "US-001-01".
var IDPattern = regexp.MustCompile(`^US-\d{3}-\d{2,}$`)

// moduleLen is the length of the module prefix within a story ID ("US-001").
const moduleLen = 6

// Story is a single unit of work. All fields except Passes are fixed at
// import time.
type Story struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Priority           Priority `json:"priority"`
	Role               string   `json:"role"`
	Action             string   `json:"action"`
	Benefit            string   `json:"benefit"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	TechnicalNotes     []string `json:"technicalNotes,omitempty"`
	Dependencies       []string `json:"dependencies,omitempty"`
	Passes             bool     `json:"passes"`
}

// Module returns the partition key derived from the story ID ("US-001").
// Returns an empty string for malformed IDs.
func (s *Story) Module() string {
	if !IDPattern.MatchString(s.ID) {
		return ""
	}
	return s.ID[:moduleLen]
}

// Statement renders the story as a single "As a ... I want ... so that ..."
// sentence for prompts and display.
func (s *Story) Statement() string {
	parts := make([]string, 0, 3)
	if s.Role != "" {
		parts = append(parts, "As a "+s.Role)
	}
	if s.Action != "" {
		parts = append(parts, "I want "+s.Action)
	}
	if s.Benefit != "" {
		parts = append(parts, "so that "+s.Benefit)
	}
	return strings.Join(parts, ", ")
}

// Validate checks the invariants established at import time: a well-formed
// ID, a title, a priority in range, and at least one acceptance criterion.
// Violations are reported as *MalformedStoryError and never repaired.
func (s *Story) Validate(source string) error {
	if !IDPattern.MatchString(s.ID) {
		return &MalformedStoryError{ID: s.ID, Source: source, Reason: "id does not match US-###-##+"}
	}
	if strings.TrimSpace(s.Title) == "" {
		return &MalformedStoryError{ID: s.ID, Source: source, Reason: "title is empty"}
	}
	if !s.Priority.Valid() {
		return &MalformedStoryError{ID: s.ID, Source: source, Reason: fmt.Sprintf("priority %d out of range (1-4)", s.Priority)}
	}
	if len(s.AcceptanceCriteria) == 0 {
		return &MalformedStoryError{ID: s.ID, Source: source, Reason: "no acceptance criteria"}
	}
	return nil
}

// MalformedStoryError reports a story that failed validation at import time.
type MalformedStoryError struct {
	ID     string // Offending story ID (may be empty if the ID itself is bad)
	Source string // File or location the story came from
	Reason string
}

func (e *MalformedStoryError) Error() string {
	id := e.ID
	if id == "" {
		id = "<no id>"
	}
	if e.Source != "" {
		return fmt.Sprintf("malformed story %s (%s): %s", id, e.Source, e.Reason)
	}
	return fmt.Sprintf("malformed story %s: %s", id, e.Reason)
}
