package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/concierge/internal/api"
	"github.com/diogo/concierge/internal/chat"
	apierrors "github.com/diogo/concierge/internal/errors"
	"github.com/diogo/concierge/internal/models"
	"github.com/diogo/concierge/internal/render"
)

func newTestModel(t *testing.T, client *api.MockClient) (Model, *chat.Controller) {
	t.Helper()
	ctrl := chat.NewController(client)
	m := NewChatModel(ctrl, Options{ServerURL: "http://localhost:5000"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), ctrl
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: key})
	return updated.(Model), cmd
}

// findMsg runs cmd, expanding batches, and returns the first message of type T
func findMsg[T tea.Msg](cmd tea.Cmd) (T, bool) {
	var zero T
	if cmd == nil {
		return zero, false
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if found, ok := findMsg[T](c); ok {
				return found, true
			}
		}
		return zero, false
	}
	found, ok := msg.(T)
	return found, ok
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	if m.Init() == nil {
		t.Error("Init should return a command")
	}
}

func TestModel_View_NotReady(t *testing.T) {
	m := NewChatModel(chat.NewController(&api.MockClient{}), Options{})
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("View before the first resize should show the initializing text")
	}
}

func TestModel_View_Welcome(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	view := m.View()

	if !strings.Contains(view, "Welcome to Vinetos de Sol") {
		t.Error("empty conversation should show the welcome panel")
	}
	if !strings.Contains(view, "http://localhost:5000") {
		t.Error("header should show the server URL")
	}
}

func TestModel_Submit_Success(t *testing.T) {
	client := &api.MockClient{SendVal: "We are open 10am to 6pm."}
	m, ctrl := newTestModel(t, client)
	m.textarea.SetValue("  When are you open?  ")

	m, cmd := press(t, m, tea.KeyEnter)

	if !m.loading {
		t.Fatal("model should be loading after submit")
	}
	if m.textarea.Value() != "" {
		t.Errorf("textarea = %q, want cleared", m.textarea.Value())
	}
	msgs := ctrl.Messages()
	if len(msgs) != 2 || msgs[0].Text != "When are you open?" || !msgs[1].IsPlaceholder() {
		t.Fatalf("unexpected messages before reply: %+v", msgs)
	}
	if !strings.Contains(m.viewport.View(), models.PlaceholderText) {
		t.Error("placeholder should be visible while awaiting")
	}

	reply, ok := findMsg[replyMsg](cmd)
	if !ok {
		t.Fatal("submit should schedule the request")
	}
	updated, _ := m.Update(reply)
	m = updated.(Model)

	if m.loading {
		t.Error("model should be idle after the reply")
	}
	msgs = ctrl.Messages()
	if len(msgs) != 2 || msgs[1].Text != "We are open 10am to 6pm." {
		t.Fatalf("unexpected messages after reply: %+v", msgs)
	}
	if !strings.Contains(m.viewport.View(), "We are open 10am to 6pm.") {
		t.Error("reply should be visible at the bottom of the viewport")
	}
	if got := client.SentMessages(); len(got) != 1 || got[0] != "When are you open?" {
		t.Errorf("sent = %v", got)
	}
}

func TestModel_Submit_Failure(t *testing.T) {
	client := &api.MockClient{SendErr: apierrors.NewAPIError(500, models.EndpointChat, "chat request failed")}
	m, ctrl := newTestModel(t, client)
	m.textarea.SetValue("hello")

	m, cmd := press(t, m, tea.KeyEnter)
	reply, ok := findMsg[replyMsg](cmd)
	if !ok {
		t.Fatal("submit should schedule the request")
	}
	updated, _ := m.Update(reply)
	m = updated.(Model)

	msgs := ctrl.Messages()
	if len(msgs) != 2 || msgs[1].Text != models.FailureText {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if !strings.Contains(m.viewport.View(), "Oops! Something went wrong.") {
		t.Error("failure text should be shown in the transcript")
	}
}

func TestModel_Submit_BlankIgnored(t *testing.T) {
	client := &api.MockClient{}
	m, ctrl := newTestModel(t, client)
	m.textarea.SetValue("   ")

	m, cmd := press(t, m, tea.KeyEnter)

	if m.loading {
		t.Error("blank input must not start a request")
	}
	if cmd != nil {
		t.Error("blank input should not schedule anything")
	}
	if len(ctrl.Messages()) != 0 || len(client.SentMessages()) != 0 {
		t.Error("blank input must not change the view or send")
	}
}

func TestModel_EnterIgnoredWhileLoading(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockClient{SendVal: "ok"})
	m.textarea.SetValue("first")
	m, _ = press(t, m, tea.KeyEnter)

	m.textarea.SetValue("second")
	m, cmd := press(t, m, tea.KeyEnter)

	if cmd != nil {
		t.Error("enter while loading should do nothing")
	}
	if len(ctrl.Messages()) != 2 {
		t.Errorf("messages = %d, want 2", len(ctrl.Messages()))
	}
	if m.textarea.Value() != "second" {
		t.Error("pending input should be kept")
	}
}

func TestModel_ExitCommand(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockClient{})
	m.textarea.SetValue("/quit")

	_, cmd := press(t, m, tea.KeyEnter)

	if _, ok := findMsg[tea.QuitMsg](cmd); !ok {
		t.Error("/quit should quit")
	}
	if len(ctrl.Messages()) != 0 {
		t.Error("/quit must not be sent")
	}
}

func TestModel_EscCancelsRequest(t *testing.T) {
	client := &api.MockClient{SendFunc: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	m, ctrl := newTestModel(t, client)
	m.textarea.SetValue("slow question")

	m, cmd := press(t, m, tea.KeyEnter)
	m, escCmd := press(t, m, tea.KeyEsc)
	if escCmd != nil {
		t.Error("esc while loading should not quit")
	}

	reply, ok := findMsg[replyMsg](cmd)
	if !ok {
		t.Fatal("expected a reply message")
	}
	if !errors.Is(reply.err, context.Canceled) {
		t.Errorf("reply err = %v, want context.Canceled", reply.err)
	}
	updated, _ := m.Update(reply)
	m = updated.(Model)

	if m.loading {
		t.Error("model should be idle after the cancelled reply")
	}
	if msgs := ctrl.Messages(); msgs[len(msgs)-1].Text != models.FailureText {
		t.Errorf("last message = %q, want failure text", msgs[len(msgs)-1].Text)
	}
}

func TestModel_CopyLastReply(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockClient{SendVal: "Try the 2019 Cabernet."})
	if err := ctrl.Submit(context.Background(), &stubInput{value: "recommend a wine"}); err != nil {
		t.Fatal(err)
	}

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m, cmd := press(t, m, tea.KeyCtrlY)
	msg, ok := findMsg[copiedMsg](cmd)
	if !ok {
		t.Fatal("ctrl+y should schedule a copy")
	}
	updated, _ := m.Update(msg)
	m = updated.(Model)

	if copied != "Try the 2019 Cabernet." {
		t.Errorf("copied = %q", copied)
	}
	if m.noticeIsError || !strings.Contains(m.notice, "copied") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_CopyWithoutReply(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})

	m, cmd := press(t, m, tea.KeyCtrlY)

	if cmd != nil {
		t.Error("nothing to copy should not schedule a copy")
	}
	if !m.noticeIsError {
		t.Error("expected an error notice")
	}
}

func TestModel_CopyFailure(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})

	updated, _ := m.Update(copiedMsg{err: errors.New("no clipboard utility")})
	m = updated.(Model)

	if !m.noticeIsError || !strings.Contains(m.View(), "Could not copy") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_AutoCopy(t *testing.T) {
	ctrl := chat.NewController(&api.MockClient{SendVal: "auto"})
	m := NewChatModel(ctrl, Options{AutoCopy: true})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = updated.(Model)

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}
	m.textarea.SetValue("q")
	m, cmd := press(t, m, tea.KeyEnter)
	reply, _ := findMsg[replyMsg](cmd)

	updated, cmd = m.Update(reply)
	if _, ok := findMsg[copiedMsg](cmd); !ok {
		t.Fatal("auto copy should schedule a copy")
	}
	if copied != "auto" {
		t.Errorf("copied = %q", copied)
	}
	_ = updated
}

func TestModel_LoadingView(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	m.loading = true

	if !strings.Contains(m.View(), "typing") {
		t.Error("loading view should show the typing indicator")
	}
}

func TestAnimationTick(t *testing.T) {
	if animationTick() == nil {
		t.Error("animationTick should return a command")
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"nil", nil, nil},
		{"network", apierrors.NewNetworkError("send chat message", errors.New("connection refused")), []string{"connection refused", "concierge serve"}},
		{"timeout", apierrors.NewTimeoutError("send chat message"), []string{"timeout_seconds"}},
		{"status with body", apierrors.NewAPIErrorWithBody(502, "/chat", "chat request failed", "<h1>Bad Gateway</h1>"), []string{"502", "/chat", "Bad Gateway"}},
		{"parse", apierrors.NewParseError("missing field", "response"), []string{"--server"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatError(tt.err)
			if tt.err == nil && got != "" {
				t.Errorf("FormatError(nil) = %q", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("FormatError() = %q, missing %q", got, w)
				}
			}
			if strings.Contains(got, "<h1>") {
				t.Error("response body markup should be stripped")
			}
		})
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("tokyonight")

	SetTheme("dracula")
	if colorPrimary != "#8be9fd" {
		t.Errorf("colorPrimary = %s after dracula", colorPrimary)
	}

	SetTheme("unknown")
	if colorPrimary != "#7aa2f7" {
		t.Errorf("unknown theme should fall back to tokyonight, got %s", colorPrimary)
	}
}

func TestSetTheme_BubbleColorsFollowRole(t *testing.T) {
	defer SetTheme("tokyonight")

	SetTheme("nord")
	theme := render.NordTheme
	if got := userBubbleStyle.GetBorderTopForeground(); got != theme.ForRole(models.RoleUser) {
		t.Errorf("user bubble border = %v, want %v", got, theme.ForRole(models.RoleUser))
	}
	if got := assistantBubbleStyle.GetBorderTopForeground(); got != theme.ForRole(models.RoleBot) {
		t.Errorf("bot bubble border = %v, want %v", got, theme.ForRole(models.RoleBot))
	}
}

type stubInput struct{ value string }

func (s *stubInput) Value() string { return s.value }
func (s *stubInput) Reset()        { s.value = "" }

func TestModel_SaveTranscript(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockClient{SendVal: "Open daily."})
	if err := ctrl.Submit(context.Background(), &stubInput{value: "hours?"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "chat.md")
	m.textarea.SetValue("/save " + path)
	m, cmd := press(t, m, tea.KeyEnter)

	if cmd != nil {
		t.Error("/save should not schedule a request")
	}
	if m.noticeIsError || !strings.Contains(m.notice, "Transcript saved") {
		t.Errorf("notice = %q", m.notice)
	}
	if m.textarea.Value() != "" {
		t.Error("textarea should be cleared after saving")
	}
	if len(ctrl.Messages()) != 2 {
		t.Error("/save must not be sent to the server")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if !strings.Contains(string(data), "Open daily.") {
		t.Errorf("transcript missing reply:\n%s", data)
	}
}

func TestModel_SaveWithoutPath(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	m.textarea.SetValue("/save")

	m, _ = press(t, m, tea.KeyEnter)

	if !m.noticeIsError || !strings.Contains(m.notice, "Usage") {
		t.Errorf("notice = %q", m.notice)
	}
}
