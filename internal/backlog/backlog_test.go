package backlog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mark3labs/sprintr/internal/story"
)

func testBacklog() *Backlog {
	return &Backlog{
		Project: "Widget Factory",
		Stories: []story.Story{
			{ID: "US-002-01", Title: "B1", Priority: 2, AcceptanceCriteria: []string{"c"}, Passes: true},
			{ID: "US-001-01", Title: "A1", Priority: 1, AcceptanceCriteria: []string{"c"}},
			{ID: "US-002-02", Title: "B2", Priority: 3, AcceptanceCriteria: []string{"c"}},
			{ID: "US-001-02", Title: "A2", Priority: 2, AcceptanceCriteria: []string{"c"}, Passes: true},
		},
	}
}

func TestValidateDuplicateID(t *testing.T) {
	b := testBacklog()
	b.Stories = append(b.Stories, story.Story{ID: "US-001-01", Title: "dup", Priority: 2, AcceptanceCriteria: []string{"c"}})

	err := b.Validate()
	var ce *CorruptBacklogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CorruptBacklogError, got %v", err)
	}
}

func TestValidateBadID(t *testing.T) {
	b := testBacklog()
	b.Stories[1].ID = "TASK-7"
	if err := b.Validate(); err == nil {
		t.Error("expected error for malformed story id")
	}
}

func TestModulesFirstSeenOrder(t *testing.T) {
	b := testBacklog()
	// US-002 appears before US-001 in the story list, so module order
	// follows that, not lexical order.
	want := []string{"US-002", "US-001"}
	if got := b.Modules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Modules() = %v, want %v", got, want)
	}
}

func TestCompletionStats(t *testing.T) {
	b := testBacklog()
	complete, total := b.CompletionStats("US-001")
	if complete != 1 || total != 2 {
		t.Errorf("expected 1/2 for US-001, got %d/%d", complete, total)
	}
	complete, total = b.CompletionStats("US-999")
	if complete != 0 || total != 0 {
		t.Errorf("expected 0/0 for unknown module, got %d/%d", complete, total)
	}
}

func TestComplete(t *testing.T) {
	b := testBacklog()
	if b.Complete() {
		t.Error("backlog with incomplete stories reported complete")
	}
	for i := range b.Stories {
		b.Stories[i].Passes = true
	}
	if !b.Complete() {
		t.Error("fully passing backlog not reported complete")
	}

	empty := &Backlog{Project: "Empty"}
	if empty.Complete() {
		t.Error("empty backlog must not be complete")
	}
}

func TestFind(t *testing.T) {
	b := testBacklog()
	s := b.Find("US-002-02")
	if s == nil || s.Title != "B2" {
		t.Fatalf("Find returned %+v", s)
	}
	// Find returns a pointer into the backlog, not a copy.
	s.Passes = true
	if !b.Stories[2].Passes {
		t.Error("mutation through Find did not reach the backlog")
	}
	if b.Find("US-404-01") != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	store := NewStore(path)

	if store.Exists() {
		t.Fatal("store should not exist before save")
	}

	b := testBacklog()
	if err := store.Save(b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Project != b.Project {
		t.Errorf("project mismatch: %q", loaded.Project)
	}
	if !reflect.DeepEqual(loaded.Stories, b.Stories) {
		t.Errorf("stories did not survive round trip")
	}
}

func TestStoreSaveDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	store := NewStore(path)
	b := testBacklog()

	if err := store.Save(b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := store.Save(b); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Error("repeated saves of unchanged backlog are not byte-identical")
	}
	if len(first) == 0 || first[len(first)-1] != '\n' {
		t.Error("canonical form must end with a newline")
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewStore(path).Load()
	var ce *CorruptBacklogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CorruptBacklogError, got %v", err)
	}
	if ce.Path != path {
		t.Errorf("error should carry the file path, got %q", ce.Path)
	}
}

func TestStoreLoadDuplicateIDCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	b := testBacklog()
	b.Stories = append(b.Stories, b.Stories[0])
	data, err := Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	_, err = NewStore(path).Load()
	var ce *CorruptBacklogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CorruptBacklogError, got %v", err)
	}
	if ce.Path != path {
		t.Errorf("error should carry the file path, got %q", ce.Path)
	}
}
