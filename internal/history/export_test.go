package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diogo/concierge/internal/models"
)

var sample = []models.Message{
	{ID: 1, Role: models.RoleUser, Text: "When are you open?"},
	{ID: 2, Role: models.RoleBot, Text: "Daily, 10am to 6pm."},
	{ID: 3, Role: models.RoleUser, Text: "Dogs?"},
	{ID: 4, Role: models.RoleBot, Text: models.PlaceholderText, Pending: true},
}

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestExportToMarkdown(t *testing.T) {
	out := ExportToMarkdown(sample, ExportOptions{Title: "Session", ServerURL: "http://localhost:5000", ExportedAt: fixedTime})

	for _, want := range []string{
		"# Session",
		"**Server:** http://localhost:5000",
		"**Exported:** 2026-03-14 15:09:26",
		"**Messages:** 3",
		"## You\n\nWhen are you open?",
		"## Concierge\n\nDaily, 10am to 6pm.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, models.PlaceholderText+"\n") {
		t.Error("pending placeholder should not be exported")
	}
	if strings.Count(out, "---") != 3 {
		t.Errorf("expected header rule plus two separators, got %d", strings.Count(out, "---"))
	}
}

func TestExport_SkipsUnknownRoles(t *testing.T) {
	msgs := append([]models.Message{{ID: 9, Role: models.Role("system"), Text: "internal note"}}, sample...)

	if out := ExportToMarkdown(msgs, ExportOptions{ExportedAt: fixedTime}); strings.Contains(out, "internal note") {
		t.Errorf("unknown role exported:\n%s", out)
	}
	data, err := ExportToJSON(msgs, ExportOptions{ExportedAt: fixedTime})
	if err != nil {
		t.Fatalf("ExportToJSON() error = %v", err)
	}
	if strings.Contains(string(data), "internal note") {
		t.Errorf("unknown role exported: %s", data)
	}
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(sample, ExportOptions{Title: "Session", ExportedAt: fixedTime})
	if err != nil {
		t.Fatalf("ExportToJSON() error = %v", err)
	}

	var got exportTranscript
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Title != "Session" || !got.ExportedAt.Equal(fixedTime) {
		t.Errorf("unexpected header: %+v", got)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(got.Messages))
	}
	if got.Messages[1].Role != "bot" || got.Messages[1].Text != "Daily, 10am to 6pm." {
		t.Errorf("unexpected message: %+v", got.Messages[1])
	}
	if strings.Contains(string(data), `"server"`) {
		t.Error("empty server should be omitted")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]ExportFormat{
		"chat.json":    ExportFormatJSON,
		"CHAT.JSON":    ExportFormatJSON,
		"chat.md":      ExportFormatMarkdown,
		"transcript":   ExportFormatMarkdown,
		"dir.json/out": ExportFormatMarkdown,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	mdPath := filepath.Join(dir, "nested", "chat.md")
	if err := WriteFile(mdPath, sample, ExportOptions{}); err != nil {
		t.Fatalf("WriteFile(md) error = %v", err)
	}
	data, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Vinetos de Sol Concierge") {
		t.Errorf("markdown export should use the default title:\n%s", data)
	}

	jsonPath := filepath.Join(dir, "chat.json")
	if err := WriteFile(jsonPath, sample, ExportOptions{}); err != nil {
		t.Fatalf("WriteFile(json) error = %v", err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("json export is not valid JSON")
	}

	info, err := os.Stat(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestWriteFile_Errors(t *testing.T) {
	if err := WriteFile("  ", sample, ExportOptions{}); err == nil {
		t.Error("empty path should fail")
	}
	if err := WriteFile(filepath.Join(t.TempDir(), "x"), sample, ExportOptions{Format: "pdf"}); err == nil {
		t.Error("unknown format should fail")
	}
}
