package tui

import (
	"strings"

	"github.com/diogo/concierge/internal/models"
	"github.com/diogo/concierge/internal/render"
)

// bubbleWidth is the width of a message bubble inside a viewport of width w
func bubbleWidth(w int) int {
	if w < 16 {
		return 10
	}
	return w - 6
}

// renderTranscript draws messages in order as labelled bubbles. It depends
// only on its arguments; formatReply turns a settled bot reply into display
// text and defaults to render.PlainText.
func renderTranscript(messages []models.Message, width int, formatReply func(string) string) string {
	if formatReply == nil {
		formatReply = render.PlainText
	}

	var content strings.Builder
	bw := bubbleWidth(width)

	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		switch {
		case msg.Role == models.RoleUser:
			label := userLabelStyle.Render("● You")
			bubble := userBubbleStyle.Width(bw).Render(render.PlainText(msg.Text))
			content.WriteString(label + "\n" + bubble)

		case msg.IsPlaceholder():
			label := assistantLabelStyle.Render("🍷 Concierge")
			bubble := placeholderBubbleStyle.Width(bw).Render(models.PlaceholderText)
			content.WriteString(label + "\n" + bubble)

		default:
			label := assistantLabelStyle.Render("🍷 Concierge")
			style := assistantBubbleStyle
			if msg.Text == models.FailureText {
				style = failureBubbleStyle
			}
			bubble := style.Width(bw).Render(formatReply(msg.Text))
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	return content.String()
}
