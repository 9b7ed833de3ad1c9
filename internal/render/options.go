// Package render turns conversation text into what the terminal shows:
// sanitized plain text, optional glamour markdown and the TUI color themes.
package render

// Options configures the markdown renderer used for bot replies.
type Options struct {
	// Width is the word-wrap column (default: 80)
	Width int

	// Style is a glamour standard style name ("dark", "light", "dracula",
	// "tokyo-night", "notty", "ascii", "pink", "auto") or a path to a JSON style
	Style string

	// EnableEmoji converts :emoji: shortcodes
	EnableEmoji bool

	// PreserveNewLines keeps single line breaks from the reply
	PreserveNewLines bool

	// TableWrap wraps long table cells instead of truncating them
	TableWrap bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	if width > 0 {
		o.Width = width
	}
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithEmoji returns Options with emoji support enabled/disabled.
func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

// WithPreserveNewLines returns Options with newline preservation enabled/disabled.
func (o Options) WithPreserveNewLines(enabled bool) Options {
	o.PreserveNewLines = enabled
	return o
}
