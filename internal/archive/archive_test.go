package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSprintArchivesFile(t *testing.T) {
	dataDir := t.TempDir()
	sprintPath := filepath.Join(t.TempDir(), "prd.json")
	if err := os.WriteFile(sprintPath, []byte(`{"project":"P"}`), 0644); err != nil {
		t.Fatal(err)
	}

	dest, err := Sprint(dataDir, sprintPath, "widget-factory/us-001-1")
	if err != nil {
		t.Fatalf("Sprint failed: %v", err)
	}

	if _, err := os.Stat(sprintPath); !os.IsNotExist(err) {
		t.Error("source sprint file should be gone after archiving")
	}
	if !strings.HasPrefix(filepath.Base(dest), "widget-factory-us-001-1-") {
		t.Errorf("unexpected archive name: %s", dest)
	}
	if filepath.Dir(dest) != filepath.Join(dataDir, "archive") {
		t.Errorf("archive landed outside the archive dir: %s", dest)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading archived sprint: %v", err)
	}
	if string(data) != `{"project":"P"}` {
		t.Error("archived content does not match source")
	}
}

func TestSprintMissingSourceIsNoop(t *testing.T) {
	dest, err := Sprint(t.TempDir(), filepath.Join(t.TempDir(), "absent.json"), "b")
	if err != nil {
		t.Fatalf("missing source should not error: %v", err)
	}
	if dest != "" {
		t.Errorf("expected empty destination, got %s", dest)
	}
}

func TestLearningsAppendAndTail(t *testing.T) {
	l := NewLearnings(t.TempDir())

	for _, entry := range []string{"first", "second", "third"} {
		if err := l.Append(entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all := l.Tail(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(all), all)
	}
	if !strings.HasSuffix(all[0], "first") {
		t.Errorf("entries out of order: %v", all)
	}

	last2 := l.Tail(2)
	if len(last2) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(last2))
	}
	if !strings.HasSuffix(last2[0], "second") || !strings.HasSuffix(last2[1], "third") {
		t.Errorf("Tail should keep the most recent entries oldest-first: %v", last2)
	}
}

func TestLearningsAppendRejectsEmpty(t *testing.T) {
	l := NewLearnings(t.TempDir())
	if err := l.Append("   "); err == nil {
		t.Error("expected error for blank learning")
	}
}

func TestLearningsTailMissingLog(t *testing.T) {
	l := NewLearnings(t.TempDir())
	if got := l.Tail(5); got != nil {
		t.Errorf("expected nil for missing log, got %v", got)
	}
}

func TestLearningsSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	l := NewLearnings(dataDir)
	if err := l.Append("watch out for flaky migrations"); err != nil {
		t.Fatal(err)
	}

	archived := filepath.Join(dataDir, "archive", "p-us-001-1-20260829-120000.json")
	if err := os.MkdirAll(filepath.Dir(archived), 0755); err != nil {
		t.Fatal(err)
	}

	if err := l.Snapshot(archived); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	data, err := os.ReadFile(strings.TrimSuffix(archived, ".json") + "-learnings.md")
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(string(data), "flaky migrations") {
		t.Error("snapshot content missing the learning")
	}
}

func TestLearningsSnapshotNoLogIsNoop(t *testing.T) {
	l := NewLearnings(t.TempDir())
	if err := l.Snapshot(filepath.Join(t.TempDir(), "x.json")); err != nil {
		t.Errorf("snapshot without a log should be a no-op: %v", err)
	}
}
