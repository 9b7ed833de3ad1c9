package render

import (
	"sort"

	"github.com/charmbracelet/glamour/styles"
)

// Glamour standard style names accepted by markdown.style
const (
	StyleAuto       = styles.AutoStyle
	StyleDark       = styles.DarkStyle
	StyleLight      = styles.LightStyle
	StyleDracula    = styles.DraculaStyle
	StyleTokyoNight = styles.TokyoNightStyle
	StyleNoTTY      = styles.NoTTYStyle
	StyleASCII      = styles.AsciiStyle
	StylePink       = styles.PinkStyle
)

// IsStandardStyle reports whether style names a glamour built-in style
// rather than a path to a JSON style file.
func IsStandardStyle(style string) bool {
	if style == StyleAuto {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

// StyleNames lists the built-in markdown styles in a stable order
func StyleNames() []string {
	names := make([]string, 0, len(styles.DefaultStyles)+1)
	names = append(names, StyleAuto)
	for name := range styles.DefaultStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
