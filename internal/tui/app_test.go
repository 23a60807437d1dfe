package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"
)

func sizedApp(t *testing.T) *App {
	t.Helper()
	a := NewApp("Test Project")
	model, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*App)
}

// viewString extracts the rendered string from the tea.View returned by
// App.View.
func viewString(a *App) string {
	return a.View().Content.(fmt.Stringer).String()
}

func TestAppViewBeforeSize(t *testing.T) {
	a := NewApp("Test Project")
	if got := viewString(a); got != "loading..." {
		t.Errorf("expected loading placeholder before first size, got %q", got)
	}
}

func TestAppProgressMsg(t *testing.T) {
	a := sizedApp(t)

	model, _ := a.Update(ProgressMsg{
		Project: "Test Project",
		Branch:  "test-project/us-001-1",
		Modules: []ModuleProgress{
			{Name: "US-001", Complete: 1, Total: 2},
			{Name: "US-002", Complete: 3, Total: 3},
		},
		Stories: []StoryLine{
			{ID: "US-001-01", Title: "Login", Passes: true},
			{ID: "US-001-02", Title: "Logout"},
		},
	})
	a = model.(*App)

	view := viewString(a)
	for _, want := range []string{"US-001", "1/2", "US-002", "DONE", "US-001-01", "Logout", "test-project/us-001-1"} {
		require.Contains(t, view, want)
	}
}

func TestAppStoryListCapped(t *testing.T) {
	a := sizedApp(t)

	stories := make([]StoryLine, maxStoryLines+3)
	for i := range stories {
		stories[i] = StoryLine{ID: "US-001-01", Title: "S"}
	}
	model, _ := a.Update(ProgressMsg{Project: "P", Stories: stories})
	a = model.(*App)

	if !strings.Contains(viewString(a), "... 3 more") {
		t.Error("overflowing story list should collapse into a count")
	}
}

func TestAppIterationAndOutput(t *testing.T) {
	a := sizedApp(t)

	model, _ := a.Update(IterationStartMsg{Number: 3})
	a = model.(*App)
	model, _ = a.Update(AgentOutputMsg{Content: "thinking about logins"})
	a = model.(*App)
	model, _ = a.Update(AgentToolMsg{Tool: "story-pass"})
	a = model.(*App)

	view := viewString(a)
	require.Contains(t, view, "iteration #3")
	require.Contains(t, view, "thinking about logins")
	require.Contains(t, view, "[tool: story-pass]")
}

func TestAppLoopDone(t *testing.T) {
	a := sizedApp(t)

	model, _ := a.Update(LoopDoneMsg{})
	a = model.(*App)
	if !strings.Contains(viewString(a), "done") {
		t.Error("view should show done state")
	}
	if a.running {
		t.Error("loop done should clear running")
	}
}

func TestAppQuitKeys(t *testing.T) {
	a := sizedApp(t)

	for _, key := range []string{"q", "ctrl+c"} {
		_, cmd := a.Update(keyPress(key))
		if cmd == nil {
			t.Errorf("key %q should produce a quit command", key)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q should quit, got %T", key, cmd())
		}
	}
}

func keyPress(key string) tea.KeyPressMsg {
	if key == "ctrl+c" {
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	}
	return tea.KeyPressMsg{Code: rune(key[0]), Text: key}
}
