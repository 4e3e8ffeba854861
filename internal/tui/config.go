package tui

import "github.com/Veraticus/smsledger/internal/tui/themes"

// Config holds TUI configuration.
type Config struct {
	Theme    themes.Theme
	Width    int
	Height   int
	ShowHelp bool
	// Preloaded skips the initial Start because the caller already ran it.
	Preloaded bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		Width:    80,
		Height:   24,
		ShowHelp: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithHelp toggles the key help footer.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}

// WithPreloaded opens straight on the candidate list. Use it when the
// reviewer was started before the program took over the terminal.
func WithPreloaded() Option {
	return func(c *Config) {
		c.Preloaded = true
	}
}
