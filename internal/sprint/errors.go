package sprint

import (
	"fmt"
	"strings"
)

// UnknownModuleError reports a requested module with no stories in the
// backlog. Recoverable: the operator picks another module.
type UnknownModuleError struct {
	Module string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module %s: no such stories in backlog", e.Module)
}

// ModuleAlreadyCompleteError reports a requested module whose stories all
// pass. Recoverable: the operator picks another module.
type ModuleAlreadyCompleteError struct {
	Module string
}

func (e *ModuleAlreadyCompleteError) Error() string {
	return fmt.Sprintf("module %s is already complete", e.Module)
}

// BacklogCompleteError is the terminal success condition: every story in
// every module passes, so no further sprints exist.
type BacklogCompleteError struct{}

func (e *BacklogCompleteError) Error() string {
	return "backlog complete: all stories pass"
}

// PartialSyncWarning is non-fatal: some sprint entries had no matching
// backlog story and were skipped. The matched subset was still committed.
type PartialSyncWarning struct {
	IDs []string
}

func (e *PartialSyncWarning) Error() string {
	return fmt.Sprintf("partial sync: %d sprint entries not found in backlog (%s)",
		len(e.IDs), strings.Join(e.IDs, ", "))
}
