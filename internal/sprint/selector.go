package sprint

import (
	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/logger"
)

// SelectModule picks the module for the next sprint when none is requested:
// the first module, in first-seen (import) order, with complete < total.
// Stateless and deterministic: reproducibility across runs matters more than
// optimality, so priorities are not considered across modules.
//
// Fails with *BacklogCompleteError when every module is complete.
func SelectModule(b *backlog.Backlog) (string, error) {
	for _, m := range b.Modules() {
		complete, total := b.CompletionStats(m)
		if complete < total {
			logger.Debug("Auto-selected module %s (%d/%d complete)", m, complete, total)
			return m, nil
		}
	}
	return "", &BacklogCompleteError{}
}
