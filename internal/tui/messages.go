package tui

// ModuleProgress is one backlog module's completion state for display.
type ModuleProgress struct {
	Name     string
	Complete int
	Total    int
}

// StoryLine is one sprint story for display.
type StoryLine struct {
	ID     string
	Title  string
	Passes bool
}

// ProgressMsg refreshes the dashboard after an extract or sync.
type ProgressMsg struct {
	Project string
	Branch  string
	Modules []ModuleProgress
	Stories []StoryLine
}

// IterationStartMsg signals the start of an agent iteration.
type IterationStartMsg struct {
	Number int
}

// AgentOutputMsg carries a chunk of agent text output.
type AgentOutputMsg struct {
	Content string
}

// AgentToolMsg reports a tool invocation by the agent.
type AgentToolMsg struct {
	Tool string
}

// LoopDoneMsg signals the end of the iteration loop.
type LoopDoneMsg struct {
	Err error
}
