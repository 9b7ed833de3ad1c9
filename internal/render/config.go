package render

import (
	"os"

	"github.com/diogo/concierge/internal/config"
)

// EnvGlamourStyle overrides the configured markdown style
const EnvGlamourStyle = "GLAMOUR_STYLE"

// OptionsFromConfig maps the user's markdown settings onto renderer options.
// GLAMOUR_STYLE takes precedence over the configured style.
func OptionsFromConfig(md config.MarkdownConfig) Options {
	opts := DefaultOptions()
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines

	if style := os.Getenv(EnvGlamourStyle); style != "" {
		opts.Style = style
	}
	return opts
}

// LoadOptionsFromConfig reads the config file and returns its render options.
// A missing or unreadable config yields the defaults.
func LoadOptionsFromConfig() Options {
	cfg, err := config.LoadConfig()
	if err != nil {
		return OptionsFromConfig(config.DefaultMarkdownConfig())
	}
	return OptionsFromConfig(cfg.Markdown)
}
