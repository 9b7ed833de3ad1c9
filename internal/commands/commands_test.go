package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/concierge/internal/api"
	"github.com/diogo/concierge/internal/chat"
	"github.com/diogo/concierge/internal/config"
	apierrors "github.com/diogo/concierge/internal/errors"
	"github.com/diogo/concierge/internal/models"
	"github.com/diogo/concierge/internal/tui"
)

type fakeTUI struct {
	called bool
	opts   tui.Options
	ctrl   *chat.Controller
	err    error
}

func (f *fakeTUI) RunChat(ctrl *chat.Controller, opts tui.Options) error {
	f.called = true
	f.ctrl = ctrl
	f.opts = opts
	return f.err
}

type testEnv struct {
	deps      *Dependencies
	client    *api.MockClient
	tui       *fakeTUI
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	baseURL   string
	copied    []string
	cfg       config.Config
	tty       bool
	stdinPipe bool
}

func newTestEnv(t *testing.T, client *api.MockClient) *testEnv {
	t.Helper()
	env := &testEnv{
		client: client,
		tui:    &fakeTUI{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.cfg = config.DefaultConfig()
	env.cfg.LogFile = filepath.Join(t.TempDir(), "concierge.log")

	env.deps = &Dependencies{
		NewClient: func(baseURL string, _ ...api.ClientOption) (api.ChatClientInterface, error) {
			env.baseURL = baseURL
			return env.client, nil
		},
		TUI:        env.tui,
		LoadConfig: func() (config.Config, error) { return env.cfg, nil },
		Clipboard: func(s string) error {
			env.copied = append(env.copied, s)
			return nil
		},
		Stdin:         strings.NewReader(""),
		Stdout:        env.stdout,
		Stderr:        env.stderr,
		StdinIsPipe:   func() bool { return env.stdinPipe },
		StdoutIsTTY:   func() bool { return env.tty },
		TerminalWidth: func() int { return 100 },
	}
	return env
}

func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestRoot_Version(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{})

	require.NoError(t, env.run("--version"))
	assert.Contains(t, env.stdout.String(), "concierge "+Version)
}

func TestRoot_NoInputShowsHelp(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{})

	require.NoError(t, env.run())
	assert.Contains(t, env.stdout.String(), "concierge chat")
	assert.Empty(t, env.client.SentMessages())
}

func TestRoot_QueryRaw(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{SendVal: "We open at 10am."})

	require.NoError(t, env.run("  When do you open?  "))

	assert.Equal(t, "We open at 10am.", env.stdout.String())
	assert.Equal(t, []string{"When do you open?"}, env.client.SentMessages())
	assert.Equal(t, models.DefaultServerURL, env.baseURL)
	assert.True(t, env.client.CloseCalled)
}

func TestRoot_ServerFlag(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{SendVal: "ok"})

	require.NoError(t, env.run("--server", "http://wine.example:8080", "hi"))
	assert.Equal(t, "http://wine.example:8080", env.baseURL)
}

func TestRoot_QueryFromStdin(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{SendVal: "Yes, dogs are welcome."})
	env.stdinPipe = true
	env.deps.Stdin = strings.NewReader("Can I bring my dog?\n")

	require.NoError(t, env.run())
	assert.Equal(t, []string{"Can I bring my dog?"}, env.client.SentMessages())
}

func TestRoot_QueryFromFileToOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "q.txt")
	out := filepath.Join(dir, "reply.md")
	require.NoError(t, os.WriteFile(in, []byte("List your wines"), 0o600))

	env := newTestEnv(t, &api.MockClient{SendVal: "Tempranillo, Garnacha"})
	require.NoError(t, env.run("-f", in, "-o", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Tempranillo, Garnacha", string(data))
	assert.Empty(t, env.stdout.String())
}

func TestRoot_EmptyMessage(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{})

	err := env.run("   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, chat.ErrEmptyInput)
	assert.Empty(t, env.client.SentMessages())
}

func TestRoot_QueryFailure(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{
		SendErr: apierrors.NewNetworkError("send chat message", errors.New("connection refused")),
	})

	err := env.run("hi")
	require.Error(t, err)

	var shown *reportedError
	assert.ErrorAs(t, err, &shown, "failure is printed before returning")
	assert.Contains(t, env.stderr.String(), "Request failed")
	assert.Contains(t, env.stderr.String(), "concierge serve")
	assert.Empty(t, env.stdout.String())
}

func TestRoot_QueryDecorated(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{SendVal: "Open **daily**."})
	env.tty = true
	env.cfg.CopyToClipboard = true
	env.cfg.Markdown.Enabled = false

	require.NoError(t, env.run("hours?"))

	assert.Contains(t, env.stdout.String(), "Concierge")
	assert.Contains(t, env.stdout.String(), "Open **daily**.")
	assert.Equal(t, []string{"Open **daily**."}, env.copied)
	assert.Contains(t, env.stderr.String(), "Copied to clipboard")
}

func TestRoot_QueryDecoratedShowsLiteralReply(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{SendVal: "Is x<y and a>b?"})
	env.tty = true
	env.cfg.Markdown.Enabled = false

	require.NoError(t, env.run("hi"))

	assert.Contains(t, env.stdout.String(), "Is x<y and a>b?")
}

func TestRoot_QueryMarkdownStripsHTML(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{SendVal: "<script>x()</script>Welcome"})
	env.tty = true
	env.cfg.Markdown.Enabled = true

	require.NoError(t, env.run("hi"))

	assert.Contains(t, env.stdout.String(), "Welcome")
	assert.NotContains(t, env.stdout.String(), "<script>")
}

func TestChat_RunsTUI(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{URL: "http://localhost:5000"})
	env.cfg.CopyToClipboard = true

	require.NoError(t, env.run("chat"))

	require.True(t, env.tui.called)
	assert.Equal(t, 1, env.client.HealthCalls)
	assert.Equal(t, "http://localhost:5000", env.tui.opts.ServerURL)
	assert.True(t, env.tui.opts.AutoCopy)
	assert.True(t, env.tui.opts.Markdown)
	assert.NotNil(t, env.tui.ctrl)
	assert.True(t, env.client.CloseCalled)
}

func TestChat_ServerDown(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{
		HealthErr: apierrors.NewNetworkError("health check", errors.New("connection refused")),
	})

	err := env.run("chat")

	require.Error(t, err)
	assert.False(t, env.tui.called)
	assert.Contains(t, env.stderr.String(), "Cannot reach")
}

func TestChat_NoCheck(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{HealthErr: errors.New("down")})

	require.NoError(t, env.run("chat", "--no-check"))
	assert.True(t, env.tui.called)
	assert.Zero(t, env.client.HealthCalls)
}

func TestChat_TUIError(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{})
	env.tui.err = errors.New("no tty")

	assert.ErrorContains(t, env.run("chat"), "no tty")
}

func TestServe_AppliesFlags(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{})
	var got config.ServerConfig
	env.deps.LoadServerConfig = func() (config.ServerConfig, error) {
		cfg := config.DefaultServerConfig()
		cfg.GeminiAPIKey, cfg.TavilyAPIKey = "g", "t"
		return cfg, nil
	}
	env.deps.Serve = func(ctx context.Context, cfg config.ServerConfig, _ *log.Logger) error {
		got = cfg
		return ctx.Err()
	}

	require.NoError(t, env.run("serve", "--addr", ":8081", "--data", "other.txt"))
	assert.Equal(t, ":8081", got.Addr)
	assert.Equal(t, "other.txt", got.DataFile)
	assert.Equal(t, "g", got.GeminiAPIKey)
}

func TestServe_ConfigError(t *testing.T) {
	env := newTestEnv(t, &api.MockClient{})
	served := false
	env.deps.LoadServerConfig = func() (config.ServerConfig, error) {
		return config.ServerConfig{}, apierrors.NewConfigError("GEMINI_API_KEY", "missing")
	}
	env.deps.Serve = func(context.Context, config.ServerConfig, *log.Logger) error {
		served = true
		return nil
	}

	err := env.run("serve")
	assert.True(t, apierrors.IsConfigError(err))
	assert.False(t, served)
}

func TestConfig_ShowSetPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvServerURL, "")

	env := newTestEnv(t, &api.MockClient{})
	env.deps.LoadConfig = config.LoadConfig

	require.NoError(t, env.run("config", "set", "server_url", "http://wine.example"))
	assert.Contains(t, env.stdout.String(), "server_url = http://wine.example")

	env.stdout.Reset()
	require.NoError(t, env.run("config", "show"))
	assert.Contains(t, env.stdout.String(), `"server_url": "http://wine.example"`)

	env.stdout.Reset()
	require.NoError(t, env.run("config", "path"))
	assert.Equal(t, filepath.Join(home, ".concierge", "config.json"), strings.TrimSpace(env.stdout.String()))

	assert.ErrorContains(t, env.run("config", "set", "nope", "x"), "unknown config key")
}

func TestFormatErrorMessage(t *testing.T) {
	assert.Empty(t, formatErrorMessage(nil, "ctx"))

	out := formatErrorMessage(apierrors.NewAPIErrorWithBody(502, "/chat", "chat request failed", "bad gateway"), "Request failed")
	assert.Contains(t, out, "Request failed")
	assert.Contains(t, out, "HTTP Status: 502")
	assert.Contains(t, out, "bad gateway")
}

func TestSpinnerLifecycle(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Connecting")
	s.start()
	s.stopWithSuccess("done")
	assert.Contains(t, buf.String(), "done")

	s2 := newSpinner(&bytes.Buffer{}, "Connecting")
	s2.start()
	s2.stopWithError()
	s2.stopWithError()
}

func TestStderrLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := stderrLogger(&Dependencies{Stderr: &buf}, &rootOptions{verbose: true})
	logger.Debug("checking", "who", "cli")
	assert.Contains(t, buf.String(), "checking")

	std := stderrLogger(&Dependencies{Stderr: os.Stderr}, &rootOptions{})
	assert.NotNil(t, std)
	assert.Equal(t, log.InfoLevel, std.GetLevel())
}

func TestWithDefaults(t *testing.T) {
	var nilDeps *Dependencies
	d := nilDeps.withDefaults()
	assert.NotNil(t, d.NewClient)
	assert.NotNil(t, d.Serve)

	partial := (&Dependencies{Stdout: &bytes.Buffer{}}).withDefaults()
	assert.NotNil(t, partial.TUI)
	assert.IsType(t, &bytes.Buffer{}, partial.Stdout)
}
