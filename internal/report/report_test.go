package report

import (
	"strings"
	"testing"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/story"
)

func TestBar(t *testing.T) {
	tests := []struct {
		complete, total int
		want            string
	}{
		{0, 10, "...................."},
		{10, 10, "####################"},
		{5, 10, "##########.........."},
		{1, 3, "#######............."}, // 6.67 rounds to 7
		{2, 3, "#############......."}, // 13.3 rounds to 13
		{0, 0, "...................."},
		{3, 0, "...................."},
	}
	for _, tt := range tests {
		got := Bar(tt.complete, tt.total)
		if got != tt.want {
			t.Errorf("Bar(%d, %d) = %q, want %q", tt.complete, tt.total, got, tt.want)
		}
		if len(got) != BarWidth {
			t.Errorf("Bar(%d, %d) width %d, want %d", tt.complete, tt.total, len(got), BarWidth)
		}
	}
}

func TestStatus(t *testing.T) {
	b := &backlog.Backlog{
		Project: "P",
		Stories: []story.Story{
			{ID: "US-001-01", Passes: true},
			{ID: "US-001-02", Passes: true},
			{ID: "US-002-01", Passes: true},
			{ID: "US-002-02", Passes: false},
		},
	}

	out := Status(b, nil)

	if !strings.Contains(out, "Backlog: 3/4 stories complete (75.0%)") {
		t.Errorf("missing aggregate line:\n%s", out)
	}
	if !strings.Contains(out, "US-001") || !strings.Contains(out, "DONE") {
		t.Errorf("complete module should render DONE:\n%s", out)
	}
	if !strings.Contains(out, "1/2") {
		t.Errorf("partial module should render counts:\n%s", out)
	}

	// Modules render in first-seen order.
	if strings.Index(out, "US-001") > strings.Index(out, "US-002") {
		t.Errorf("modules out of order:\n%s", out)
	}
}

func TestStatusEmptyBacklog(t *testing.T) {
	b := &backlog.Backlog{Project: "P"}
	out := Status(b, nil)
	if !strings.Contains(out, "Backlog: 0/0 stories complete (0.0%)") {
		t.Errorf("empty backlog should not divide by zero:\n%s", out)
	}
}
