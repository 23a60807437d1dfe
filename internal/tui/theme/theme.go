// Package theme defines the TUI color palette.
package theme

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string // lipgloss.Color is a string type
	Secondary string

	// Background hierarchy
	BgBase    string
	BgSurface string

	// Foreground hierarchy
	FgMuted string
	FgBase  string

	// Status colors
	Success string
	Warning string
	Error   string
}

// NewCatppuccinMocha creates the default Catppuccin Mocha theme.
func NewCatppuccinMocha() *Theme {
	return &Theme{
		Name:   "catppuccin-mocha",
		IsDark: true,

		Primary:   "#cba6f7", // Mauve
		Secondary: "#89b4fa", // Blue

		BgBase:    "#1e1e2e",
		BgSurface: "#313244",

		FgMuted: "#6c7086",
		FgBase:  "#cdd6f4",

		Success: "#a6e3a1", // Green
		Warning: "#f9e2af", // Yellow
		Error:   "#f38ba8", // Red
	}
}
