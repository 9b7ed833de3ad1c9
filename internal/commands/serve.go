package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/diogo/concierge/internal/agent"
	"github.com/diogo/concierge/internal/config"
	"github.com/diogo/concierge/internal/knowledge"
	"github.com/diogo/concierge/internal/server"
)

// NewServeCmd creates the command that runs the concierge server
func NewServeCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	var addr, dataFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the concierge server",
		Long: `Run the concierge HTTP server. It answers POST /chat with a Gemini
agent that can look up the winery document, the weather and the web.

Configuration is read from the environment and a .env file in the current
directory: GEMINI_API_KEY and TAVILY_API_KEY are required; CONCIERGE_ADDR,
CONCIERGE_DATA_FILE, CONCIERGE_MODEL, CONCIERGE_EMBED_MODEL,
CONCIERGE_RATE_LIMIT and CONCIERGE_MAX_STEPS are optional.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := stderrLogger(deps, opts)

			cfg, err := deps.LoadServerConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dataFile != "" {
				cfg.DataFile = dataFile
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return deps.Serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :5000)")
	cmd.Flags().StringVar(&dataFile, "data", "", "Winery document to answer from")
	return cmd
}

// runServer builds the agent from cfg and serves until ctx is done
func runServer(ctx context.Context, cfg config.ServerConfig, logger *log.Logger) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	embedder, err := knowledge.NewGenAIEmbedder(client, cfg.EmbedModel)
	if err != nil {
		return err
	}

	start := time.Now()
	index, err := knowledge.Load(ctx, cfg.DataFile, embedder)
	if err != nil {
		return fmt.Errorf("failed to build knowledge index: %w", err)
	}
	logger.Info("knowledge index ready",
		"file", cfg.DataFile,
		"chunks", index.Len(),
		"embedder", embedder.Name(),
		"elapsed", time.Since(start).Round(time.Millisecond))

	search, err := agent.NewSearchTool(cfg.TavilyAPIKey)
	if err != nil {
		return err
	}

	model, err := agent.NewGeminiModel(client, cfg.Model)
	if err != nil {
		return err
	}

	concierge, err := agent.New(agent.Config{
		Model: model,
		Tools: []agent.Tool{
			search,
			&agent.WeatherTool{},
			agent.NewRetrieverTool(index, agent.DefaultRetrieveK),
		},
		MaxSteps: cfg.MaxSteps,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	logger.Info("agent ready", "model", model.Name(), "tools", len(concierge.Tools()))

	srv := server.New(concierge, server.Options{
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	return srv.Run(ctx, cfg.Addr)
}
