// Package importer converts human-authored markdown user stories into
// backlog records. It recognizes English and German story documents, two
// acceptance-criteria notations (numbered list, checkbox list) and two
// priority notations (level code, bare numeral).
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/story"
)

var (
	headerRe   = regexp.MustCompile(`^(US-\d{3}-\d{2,})\s*[:.]?\s*(.*)$`)
	blockRe    = regexp.MustCompile(`(?m)^###\s+US-\d{3}-\d{2,}`)
	priorityRe = regexp.MustCompile(`(?i)^\*{0,2}(?:Priorit[aä]t|Priority)\*{0,2}[:\s*]*(\S+)`)
	numberedRe = regexp.MustCompile(`^(\d+)\.\s+`)
	checkboxRe = regexp.MustCompile(`^-\s*\[[ xX]\]\s*`)
	storyIDRe  = regexp.MustCompile(`US-\d{3}-\d{2,}`)

	// Statement forms. Bold markers are stripped before matching.
	statementEnRe = regexp.MustCompile(`(?i)^As an?\s+(.+?),?\s+I want\s+(.+?),?\s+so that\s+(.+?)\.?$`)
	statementDeRe = regexp.MustCompile(`(?i)^Als\s+(.+?)\s+möchte ich\s+(.+?),?\s+damit\s+(.+?)\.?$`)
)

// ParseDir parses every *.md file in dir (lexical order, so import order is
// stable) and returns the stories found. Any malformed story aborts the
// import with a *MalformedStoryError naming the file.
func ParseDir(dir string) ([]story.Story, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing story files: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no story files (*.md) found in %s", dir)
	}
	sort.Strings(entries)

	var stories []story.Story
	for _, path := range entries {
		parsed, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		stories = append(stories, parsed...)
	}
	return stories, nil
}

// ParseFile parses all story blocks in a single markdown file.
func ParseFile(path string) ([]story.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	starts := blockRe.FindAllStringIndex(content, -1)

	var stories []story.Story
	for i, loc := range starts {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		s, err := parseBlock(content[loc[0]:end], path)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}

	logger.Debug("Parsed %d stories from %s", len(stories), path)
	return stories, nil
}

// Build assembles a backlog from parsed stories, preserving Passes flags
// from a previous backlog on re-import. Duplicate IDs across source files
// are a *CorruptBacklogError.
func Build(stories []story.Story, prev *backlog.Backlog, project, branch string) (*backlog.Backlog, error) {
	b := &backlog.Backlog{
		Project:    project,
		BranchName: branch,
		Stories:    stories,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if prev != nil {
		kept := 0
		for i := range b.Stories {
			if old := prev.Find(b.Stories[i].ID); old != nil && old.Passes {
				b.Stories[i].Passes = true
				kept++
			}
		}
		if kept > 0 {
			logger.Info("Preserved %d completed stories from existing backlog", kept)
		}
	}
	return b, nil
}

// parseBlock parses one "### US-###-## Title" block.
func parseBlock(block, source string) (story.Story, error) {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	header := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))

	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return story.Story{}, &story.MalformedStoryError{Source: source, Reason: fmt.Sprintf("bad story header %q", header)}
	}
	s := story.Story{
		ID:    m[1],
		Title: strings.TrimSpace(m[2]),
	}

	prio, err := parsePriority(lines)
	if err != nil {
		return story.Story{}, &story.MalformedStoryError{ID: s.ID, Source: source, Reason: err.Error()}
	}
	s.Priority = prio

	s.Role, s.Action, s.Benefit = parseStatement(lines)
	s.AcceptanceCriteria = parseCriteria(lines)
	s.TechnicalNotes, s.Dependencies = parseNotes(lines)

	if err := s.Validate(source); err != nil {
		return story.Story{}, err
	}
	return s, nil
}

// parsePriority finds the priority marker line. Only a line that starts with
// the marker counts; "priority" mid-sentence in a statement is prose, not a
// marker. A missing marker defaults to P2 (the documented importer default);
// a marker that does not normalize is an error, never silently defaulted.
func parsePriority(lines []string) (story.Priority, error) {
	for _, line := range lines[1:] {
		m := priorityRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		raw := strings.Trim(m[1], "*:")
		return story.ParsePriority(raw)
	}
	return story.PriorityHigh, nil
}

// parseStatement extracts the role/action/benefit triple from the
// "As a ... I want ... so that ..." (or German "Als ... möchte ich ...,
// damit ...") sentence. An unstructured description lands in action so the
// text is not lost.
func parseStatement(lines []string) (role, action, benefit string) {
	var collected []string
	in := false
	for _, line := range lines[1:] {
		stripped := strings.TrimSpace(line)
		clean := strings.TrimSpace(strings.ReplaceAll(stripped, "**", ""))
		lower := strings.ToLower(clean)
		if !in && (strings.HasPrefix(lower, "as a") || strings.HasPrefix(lower, "als ")) {
			in = true
		}
		if !in {
			continue
		}
		if isSectionHeading(clean) {
			break
		}
		if clean != "" {
			collected = append(collected, clean)
		}
		if strings.HasSuffix(clean, ".") && (strings.Contains(lower, "so that") || strings.Contains(lower, "damit")) {
			break
		}
	}

	statement := strings.Join(collected, " ")
	if statement == "" {
		return "", "", ""
	}
	if m := statementEnRe.FindStringSubmatch(statement); m != nil {
		return m[1], m[2], m[3]
	}
	if m := statementDeRe.FindStringSubmatch(statement); m != nil {
		return m[1], m[2], m[3]
	}
	return "", statement, ""
}

// parseCriteria extracts the acceptance criteria list. Both numbered and
// checkbox notations are supported; continuation lines are folded into the
// preceding criterion. Order is meaningful and preserved.
func parseCriteria(lines []string) []string {
	var criteria []string
	current := ""
	in := false

	flush := func() {
		c := strings.TrimSpace(strings.ReplaceAll(current, "**", ""))
		if c != "" {
			criteria = append(criteria, c)
		}
		current = ""
	}

	for _, line := range lines[1:] {
		stripped := strings.TrimSpace(line)
		clean := strings.ReplaceAll(stripped, "**", "")
		if isCriteriaHeading(clean) {
			in = true
			continue
		}
		if !in {
			continue
		}
		if isSectionHeading(clean) || strings.HasPrefix(stripped, "---") {
			break
		}
		switch {
		case numberedRe.MatchString(stripped):
			flush()
			current = stripped[numberedRe.FindStringIndex(stripped)[1]:]
		case checkboxRe.MatchString(stripped):
			flush()
			current = stripped[checkboxRe.FindStringIndex(stripped)[1]:]
		case strings.HasPrefix(stripped, "- "):
			current += " " + stripped[2:]
		case stripped != "" && current != "":
			current += " " + stripped
		}
	}
	flush()
	return criteria
}

// parseNotes extracts technical notes and dependencies. Bullets in the
// dependency section that look like story IDs become Dependencies; anything
// else stays a technical note.
func parseNotes(lines []string) (notes, deps []string) {
	section := ""
	for _, line := range lines[1:] {
		stripped := strings.TrimSpace(line)
		clean := strings.ReplaceAll(stripped, "**", "")
		switch {
		case isNotesHeading(clean):
			section = "notes"
			continue
		case isDependenciesHeading(clean):
			section = "deps"
			continue
		case isSectionHeading(clean):
			section = ""
			continue
		}
		if section == "" || strings.HasPrefix(stripped, "---") {
			continue
		}
		text := stripped
		if strings.HasPrefix(text, "- ") {
			text = strings.TrimSpace(text[2:])
		}
		text = strings.TrimSpace(strings.ReplaceAll(text, "**", ""))
		if text == "" {
			continue
		}
		if section == "deps" {
			if id := storyIDRe.FindString(text); id != "" {
				deps = append(deps, id)
				continue
			}
		}
		notes = append(notes, text)
	}
	return notes, deps
}

func isCriteriaHeading(line string) bool {
	return strings.HasPrefix(line, "Akzeptanzkriterien") || strings.HasPrefix(line, "Acceptance")
}

func isNotesHeading(line string) bool {
	return strings.HasPrefix(line, "Technische Hinweise") || strings.HasPrefix(line, "Technical")
}

func isDependenciesHeading(line string) bool {
	return strings.HasPrefix(line, "Abhängigkeiten") || strings.HasPrefix(line, "Depend")
}

// isSectionHeading reports whether a (bold-stripped) line starts any of the
// known story sections.
func isSectionHeading(line string) bool {
	return isCriteriaHeading(line) || isNotesHeading(line) || isDependenciesHeading(line) ||
		strings.HasPrefix(line, "Priorit") || strings.HasPrefix(line, "Priority")
}
