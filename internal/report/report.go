// Package report renders read-only progress aggregations over the backlog.
package report

import (
	"fmt"
	"strings"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/sprint"
)

// BarWidth is the fixed width of the per-module progress bar.
const BarWidth = 20

// Status renders the backlog progress: an aggregate header, one line per
// module in first-seen order, and a current-sprint trailer when a sprint
// file exists.
func Status(b *backlog.Backlog, file *sprint.File) string {
	var sb strings.Builder

	total := len(b.Stories)
	done := 0
	for i := range b.Stories {
		if b.Stories[i].Passes {
			done++
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	fmt.Fprintf(&sb, "Backlog: %d/%d stories complete (%.1f%%)\n\n", done, total, pct)

	for _, m := range b.Modules() {
		complete, moduleTotal := b.CompletionStats(m)
		fmt.Fprintf(&sb, "  %s [%s] %8s\n", m, Bar(complete, moduleTotal), moduleStatus(complete, moduleTotal))
	}

	if file != nil && file.Exists() {
		if sp, err := file.Load(); err == nil {
			fmt.Fprintf(&sb, "\n  Current sprint: %s — %d/%d remaining (%d KB)\n",
				sp.BranchName, sp.Remaining(), len(sp.Stories), file.Size()/1024)
		}
	}

	return sb.String()
}

// Bar renders a proportional fixed-width bar. A module with zero stories
// renders an empty bar rather than dividing by zero.
func Bar(complete, total int) string {
	if total <= 0 {
		return strings.Repeat(".", BarWidth)
	}
	filled := int(float64(complete)/float64(total)*BarWidth + 0.5)
	if filled > BarWidth {
		filled = BarWidth
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", BarWidth-filled)
}

// moduleStatus renders "complete/total", "DONE" for finished modules, and a
// distinct marker for the 0/0 edge case.
func moduleStatus(complete, total int) string {
	switch {
	case total == 0:
		return "no stories"
	case complete == total:
		return "DONE"
	default:
		return fmt.Sprintf("%d/%d", complete, total)
	}
}
