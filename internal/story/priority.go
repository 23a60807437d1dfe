package story

import (
	"fmt"
	"strconv"
	"strings"
)

// Priority is an ordinal rank from 1 (highest) to 4 (lowest).
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// Valid reports whether the priority is one of the four levels.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityLow
}

// String returns the level code, e.g. "P1".
func (p Priority) String() string {
	return fmt.Sprintf("P%d", int(p))
}

// tierLabels maps tier labels (as found in source documents) to levels.
var tierLabels = map[string]Priority{
	"critical": PriorityCritical,
	"high":     PriorityHigh,
	"medium":   PriorityMedium,
	"low":      PriorityLow,
}

// ParsePriority normalizes a priority notation to one of the four levels.
// Accepted forms: level codes ("P1".."P4"), bare numerals ("1".."4"), and
// tier labels ("critical", "high", "medium", "low", case-insensitive).
// Every valid input maps to exactly one level; anything else is an error.
func ParsePriority(text string) (Priority, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return 0, fmt.Errorf("empty priority")
	}
	if p, ok := tierLabels[t]; ok {
		return p, nil
	}
	t = strings.TrimPrefix(t, "p")
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("unrecognized priority %q", text)
	}
	p := Priority(n)
	if !p.Valid() {
		return 0, fmt.Errorf("priority %d out of range (1-4)", n)
	}
	return p, nil
}
