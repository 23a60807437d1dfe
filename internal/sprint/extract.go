package sprint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/story"
)

// Compaction limits keep the sprint file small enough for reliable agent
// processing. Values carried over from the original sprint tooling.
const (
	maxActionRunes    = 300
	maxCriteria       = 8
	maxCriterionRunes = 200
	maxNoteRunes      = 300
)

// Extract materializes a sprint from the backlog for the given modules.
// Stories are included in backlog order with their current Passes values;
// the extractor never reorders by priority or dependencies. seq is the
// per-module generation counter used to keep branch names collision-free on
// repeated extraction.
//
// Fails with *UnknownModuleError if a module has no stories, and with
// *ModuleAlreadyCompleteError if every requested module is 100% complete.
func Extract(b *backlog.Backlog, seq int, modules ...string) (*Sprint, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("no modules requested")
	}

	want := make(map[string]bool, len(modules))
	for _, m := range modules {
		m = strings.ToUpper(m)
		if !b.HasModule(m) {
			return nil, &UnknownModuleError{Module: m}
		}
		want[m] = true
	}

	var stories []story.Story
	done := 0
	for i := range b.Stories {
		if !want[b.Stories[i].Module()] {
			continue
		}
		s := compact(b.Stories[i])
		if s.Passes {
			done++
		}
		stories = append(stories, s)
	}

	if done == len(stories) {
		// Single-module case reports the module; multi-module reports the set.
		return nil, &ModuleAlreadyCompleteError{Module: strings.Join(sortedKeys(want), "+")}
	}

	names := strings.Join(sortedKeys(want), ", ")
	backlogDone := 0
	for i := range b.Stories {
		if b.Stories[i].Passes {
			backlogDone++
		}
	}

	sp := &Sprint{
		Project:    b.Project,
		BranchName: branchName(b.Project, sortedKeys(want), seq),
		Description: fmt.Sprintf("Sprint: %s — %d of %d stories remaining. Full backlog: %d/%d complete.",
			names, len(stories)-done, len(stories), backlogDone, len(b.Stories)),
		Stories: stories,
	}

	logger.Info("Extracted sprint %s: %d stories (%d done)", sp.BranchName, len(stories), done)
	return sp, nil
}

// UnmetDependencies returns the IDs of sprint stories whose declared
// dependencies are not yet complete in the backlog. Advisory only: the
// result is surfaced as a soft warning, never a block.
func UnmetDependencies(b *backlog.Backlog, sp *Sprint) []string {
	var warn []string
	for i := range sp.Stories {
		s := &sp.Stories[i]
		if s.Passes {
			continue
		}
		for _, dep := range s.Dependencies {
			d := b.Find(dep)
			if d == nil || !d.Passes {
				warn = append(warn, fmt.Sprintf("%s depends on incomplete %s", s.ID, dep))
			}
		}
	}
	return warn
}

// branchName derives a stable, collision-free branch label:
// <project-slug>/<modules-lower>-<seq>.
func branchName(project string, modules []string, seq int) string {
	prefix := slug.Make(project)
	if prefix == "" {
		prefix = "sprint"
	}
	return fmt.Sprintf("%s/%s-%d", prefix, strings.ToLower(strings.Join(modules, "+")), seq)
}

// compact trims free-text fields so the sprint stays agent-sized. IDs,
// priorities and pass flags are never touched.
func compact(s story.Story) story.Story {
	s.Action = truncate(s.Action, maxActionRunes)
	if len(s.AcceptanceCriteria) > maxCriteria {
		s.AcceptanceCriteria = s.AcceptanceCriteria[:maxCriteria]
	}
	criteria := make([]string, len(s.AcceptanceCriteria))
	for i, c := range s.AcceptanceCriteria {
		criteria[i] = truncate(c, maxCriterionRunes)
	}
	s.AcceptanceCriteria = criteria
	if len(s.TechnicalNotes) > 0 {
		notes := make([]string, len(s.TechnicalNotes))
		for i, n := range s.TechnicalNotes {
			notes[i] = truncate(n, maxNoteRunes)
		}
		s.TechnicalNotes = notes
	}
	return s
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

// sortedKeys returns map keys in lexical order for stable naming.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
