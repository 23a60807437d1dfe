package template

// DefaultTemplate is the embedded default prompt template.
// It uses {{variable}} placeholders for dynamic content injection.
const DefaultTemplate = `# sprintr Sprint
Project: {{project}} | Branch: {{branch}} | Iteration: #{{iteration}}

{{sprint}}

{{learnings}}

## Tools
Sprint tools are served over MCP at {{mcp_url}}:
- sprint-status: current progress of the sprint
- story-get: full detail for one story by id
- story-pass: mark a story complete after its acceptance criteria hold
- learning-add: record a learning for future iterations

## Rules
- ONE story per iteration - complete fully, then STOP
- Work highest priority first among stories whose dependencies pass
- Verify every acceptance criterion before calling story-pass
- Record learnings with learning-add when something surprises you
- When EVERY story in the sprint passes, print {{marker}} and stop
{{extra}}`
