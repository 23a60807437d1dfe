// Package tui presents a full-screen dashboard for the sprint loop: backlog
// progress per module, the current sprint's stories, and the agent's output
// stream.
package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mark3labs/sprintr/internal/report"
	"github.com/mark3labs/sprintr/internal/tui/theme"
)

// maxStoryLines caps the sprint story list so the output viewport keeps most
// of the screen.
const maxStoryLines = 8

// App is the root Bubbletea model for the run dashboard.
type App struct {
	theme *theme.Theme

	width  int
	height int
	ready  bool

	project   string
	branch    string
	iteration int
	running   bool
	done      bool
	loopErr   error

	modules []ModuleProgress
	stories []StoryLine

	spinner  spinner.Model
	viewport viewport.Model
	output   strings.Builder

	// Styles built once from the theme.
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	passStyle   lipgloss.Style
	openStyle   lipgloss.Style
	errStyle    lipgloss.Style
}

// NewApp creates the dashboard for a project.
func NewApp(project string) *App {
	t := theme.NewCatppuccinMocha()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary))

	return &App{
		theme:       t,
		project:     project,
		spinner:     sp,
		headerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary)).Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		passStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)),
		openStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		errStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Error)),
	}
}

// Init starts the spinner.
// In Bubbletea v2, Init returns only tea.Cmd (not Model).
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()

	case ProgressMsg:
		a.project = msg.Project
		a.branch = msg.Branch
		a.modules = msg.Modules
		a.stories = msg.Stories

	case IterationStartMsg:
		a.iteration = msg.Number
		a.running = true
		fmt.Fprintf(&a.output, "\n--- iteration #%d ---\n", msg.Number)
		a.refreshViewport()

	case AgentOutputMsg:
		a.output.WriteString(msg.Content)
		a.refreshViewport()

	case AgentToolMsg:
		fmt.Fprintf(&a.output, "\n[tool: %s]\n", msg.Tool)
		a.refreshViewport()

	case LoopDoneMsg:
		a.running = false
		a.done = true
		a.loopErr = msg.Err

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// View renders the dashboard.
func (a *App) View() tea.View {
	if !a.ready {
		return tea.NewView("loading...")
	}

	var sb strings.Builder
	sb.WriteString(a.renderHeader() + "\n")
	sb.WriteString(a.renderModules())
	sb.WriteString(a.renderStories())
	sb.WriteString(a.viewport.View() + "\n")
	sb.WriteString(a.renderFooter())
	return tea.NewView(sb.String())
}

func (a *App) renderHeader() string {
	title := theme.ApplyGradient("sprintr", a.theme.Primary, a.theme.Secondary)
	status := ""
	switch {
	case a.running:
		status = a.spinner.View() + fmt.Sprintf("iteration #%d", a.iteration)
	case a.done && a.loopErr != nil:
		status = a.errStyle.Render("stopped: " + a.loopErr.Error())
	case a.done:
		status = a.passStyle.Render("done")
	}
	line := fmt.Sprintf("%s  %s", title, a.headerStyle.Render(a.project))
	if a.branch != "" {
		line += a.mutedStyle.Render("  " + a.branch)
	}
	if status != "" {
		line += "  " + status
	}
	return line
}

func (a *App) renderModules() string {
	var sb strings.Builder
	for _, m := range a.modules {
		bar := report.Bar(m.Complete, m.Total)
		label := fmt.Sprintf("%d/%d", m.Complete, m.Total)
		style := a.openStyle
		if m.Total > 0 && m.Complete == m.Total {
			label = "DONE"
			style = a.passStyle
		}
		fmt.Fprintf(&sb, "  %s [%s] %s\n", m.Name, a.mutedStyle.Render(bar), style.Render(label))
	}
	return sb.String()
}

func (a *App) renderStories() string {
	if len(a.stories) == 0 {
		return ""
	}
	var sb strings.Builder
	shown := a.stories
	if len(shown) > maxStoryLines {
		shown = shown[:maxStoryLines]
	}
	for _, s := range shown {
		mark := a.openStyle.Render("[ ]")
		if s.Passes {
			mark = a.passStyle.Render("[x]")
		}
		fmt.Fprintf(&sb, "  %s %s %s\n", mark, s.ID, s.Title)
	}
	if len(a.stories) > maxStoryLines {
		fmt.Fprintf(&sb, "  %s\n", a.mutedStyle.Render(fmt.Sprintf("... %d more", len(a.stories)-maxStoryLines)))
	}
	return sb.String()
}

func (a *App) renderFooter() string {
	return a.mutedStyle.Render("q quit · scroll with wheel/arrows")
}

// resize recomputes the viewport dimensions from the fixed chrome around it.
func (a *App) resize() {
	storyLines := len(a.stories)
	if storyLines > maxStoryLines {
		storyLines = maxStoryLines + 1
	}
	chrome := 1 + len(a.modules) + storyLines + 1 // header + bars + stories + footer
	height := a.height - chrome
	if height < 3 {
		height = 3
	}

	if !a.ready {
		a.viewport = viewport.New(
			viewport.WithWidth(a.width),
			viewport.WithHeight(height),
		)
		a.viewport.MouseWheelEnabled = true
		a.ready = true
		a.refreshViewport()
	} else {
		a.viewport.SetWidth(a.width)
		a.viewport.SetHeight(height)
	}
}

func (a *App) refreshViewport() {
	if !a.ready {
		return
	}
	atBottom := a.viewport.AtBottom()
	a.viewport.SetContent(a.output.String())
	if atBottom {
		a.viewport.GotoBottom()
	}
}
