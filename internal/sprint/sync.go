package sprint

import (
	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/logger"
)

// SyncResult reports the outcome of a merge.
type SyncResult struct {
	Updated   int      // Stories flipped false -> true in the backlog
	Unmatched []string // Sprint IDs with no backlog counterpart (skipped)
}

// Warning returns a *PartialSyncWarning when entries were skipped, nil
// otherwise. Skipped entries never abort a sync: losing already-completed
// work is worse than a noisy warning.
func (r SyncResult) Warning() *PartialSyncWarning {
	if len(r.Unmatched) == 0 {
		return nil
	}
	return &PartialSyncWarning{IDs: r.Unmatched}
}

// Sync folds completion state from the sprint into the backlog. The merge is
// monotonic and idempotent: it only ever flips Passes false -> true, never
// the reverse, so applying the same sync twice equals applying it once.
// Sprint entries absent from the backlog are skipped and reported. The
// sprint itself is never mutated; it remains a snapshot for archiving.
//
// The caller persists the backlog afterwards; when Updated == 0 the backlog
// is unchanged and need not be rewritten.
func Sync(b *backlog.Backlog, sp *Sprint) SyncResult {
	var res SyncResult
	for i := range sp.Stories {
		s := &sp.Stories[i]
		if !s.Passes {
			continue
		}
		target := b.Find(s.ID)
		if target == nil {
			res.Unmatched = append(res.Unmatched, s.ID)
			continue
		}
		if !target.Passes {
			target.Passes = true
			res.Updated++
		}
	}

	if res.Updated > 0 {
		logger.Info("Synced %d newly completed stories to backlog", res.Updated)
	}
	if len(res.Unmatched) > 0 {
		logger.Warn("Sync skipped %d sprint entries with no backlog match: %v", len(res.Unmatched), res.Unmatched)
	}
	return res
}

// SyncFiles is the whole-operation form used by the CLI and orchestrator:
// load both documents, merge, and save the backlog only when something
// changed (a no-op sync leaves the file byte-identical). The returned
// warning, if any, is a *PartialSyncWarning.
func SyncFiles(store *backlog.Store, file *File) (SyncResult, error) {
	b, err := store.Load()
	if err != nil {
		return SyncResult{}, err
	}
	sp, err := file.Load()
	if err != nil {
		return SyncResult{}, err
	}

	res := Sync(b, sp)
	if res.Updated > 0 {
		if err := store.Save(b); err != nil {
			return res, err
		}
	}
	return res, nil
}
