package render

import (
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// PlainText makes message text safe to print as typed. Terminal escape
// sequences and stray control characters are removed; everything else,
// angle brackets included, is kept literally.
func PlainText(s string) string {
	if s == "" {
		return s
	}
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// stripMarkup removes HTML from text that is about to be parsed as
// markdown, so raw tags never reach the terminal renderer.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
