package render

import "strings"

// Markdown renders markdown content for terminal display using a pooled renderer.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Reply prepares a bot reply for display. Plain mode shows the literal
// text. With markdown on, embedded HTML is stripped and glamour renders
// the rest, falling back to the literal text when rendering fails.
func Reply(text string, markdown bool, opts Options) string {
	plain := PlainText(text)
	if !markdown || strings.TrimSpace(plain) == "" {
		return plain
	}

	out, err := Markdown(stripMarkup(plain), opts)
	if err != nil {
		return plain
	}
	return strings.Trim(out, "\n")
}
