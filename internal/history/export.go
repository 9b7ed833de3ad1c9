// Package history exports the transcript of the current chat session.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/concierge/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how a transcript is exported
type ExportOptions struct {
	Format    ExportFormat
	Title     string
	ServerURL string
	// ExportedAt defaults to the current time
	ExportedAt time.Time
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format: ExportFormatMarkdown,
		Title:  "Vinetos de Sol Concierge",
	}
}

// FormatFromPath picks JSON for .json files and Markdown otherwise
func FormatFromPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

// settled drops pending placeholders and messages with an unknown role
func settled(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role.Valid() && !m.IsPlaceholder() {
			out = append(out, m)
		}
	}
	return out
}

func (o ExportOptions) exportedAt() time.Time {
	if o.ExportedAt.IsZero() {
		return time.Now()
	}
	return o.ExportedAt
}

// ExportToMarkdown renders messages as a Markdown document
func ExportToMarkdown(messages []models.Message, opts ExportOptions) string {
	msgs := settled(messages)
	var sb strings.Builder

	// Header
	sb.WriteString("# ")
	sb.WriteString(opts.Title)
	sb.WriteString("\n\n")

	// Metadata
	if opts.ServerURL != "" {
		sb.WriteString("**Server:** ")
		sb.WriteString(opts.ServerURL)
		sb.WriteString("\n")
	}
	sb.WriteString("**Exported:** ")
	sb.WriteString(opts.exportedAt().Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(msgs)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range msgs {
		role := "You"
		if msg.Role == models.RoleBot {
			role = "Concierge"
		}
		sb.WriteString("## ")
		sb.WriteString(role)
		sb.WriteString("\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if i < len(msgs)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type exportMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type exportTranscript struct {
	Title      string          `json:"title"`
	Server     string          `json:"server,omitempty"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []exportMessage `json:"messages"`
}

// ExportToJSON renders messages as an indented JSON document
func ExportToJSON(messages []models.Message, opts ExportOptions) ([]byte, error) {
	msgs := settled(messages)
	export := exportTranscript{
		Title:      opts.Title,
		Server:     opts.ServerURL,
		ExportedAt: opts.exportedAt().UTC(),
		Messages:   make([]exportMessage, len(msgs)),
	}
	for i, m := range msgs {
		export.Messages[i] = exportMessage{Role: m.Role.String(), Text: m.Text}
	}
	return json.MarshalIndent(export, "", "  ")
}

// WriteFile exports messages to path, creating parent directories. The
// format follows opts.Format, or the file extension when unset.
func WriteFile(path string, messages []models.Message, opts ExportOptions) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	if opts.Format == "" {
		opts.Format = FormatFromPath(path)
	}
	if opts.Title == "" {
		opts.Title = DefaultExportOptions().Title
	}

	var data []byte
	switch opts.Format {
	case ExportFormatJSON:
		var err error
		if data, err = ExportToJSON(messages, opts); err != nil {
			return fmt.Errorf("failed to encode transcript: %w", err)
		}
	case ExportFormatMarkdown:
		data = []byte(ExportToMarkdown(messages, opts))
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
