package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apierrors "github.com/diogo/concierge/internal/errors"
	"github.com/diogo/concierge/internal/models"
)

// Server environment variables
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvTavilyAPIKey = "TAVILY_API_KEY"
	EnvListenAddr   = "CONCIERGE_ADDR"
	EnvDataFile     = "CONCIERGE_DATA_FILE"
	EnvModel        = "CONCIERGE_MODEL"
	EnvEmbedModel   = "CONCIERGE_EMBED_MODEL"
	EnvRateLimit    = "CONCIERGE_RATE_LIMIT"
	EnvMaxSteps     = "CONCIERGE_MAX_STEPS"
)

// ServerConfig holds everything `concierge serve` needs
type ServerConfig struct {
	Addr         string
	GeminiAPIKey string
	TavilyAPIKey string
	DataFile     string
	Model        string
	EmbedModel   string
	// RateLimit is the number of /chat requests allowed per client IP per minute
	RateLimit int
	MaxSteps  int
}

// DefaultServerConfig returns the server defaults, without API keys
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:       models.DefaultListenAddr,
		DataFile:   "data/wine_info.txt",
		Model:      "gemini-1.5-flash",
		EmbedModel: "gemini-embedding-001",
		RateLimit:  30,
		MaxSteps:   8,
	}
}

// LoadServerConfig reads the server configuration from the environment.
// Variables in envFiles (default ".env") are loaded first without overriding
// variables already present in the process environment. A missing .env file
// is not an error.
func LoadServerConfig(envFiles ...string) (ServerConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return ServerConfig{}, apierrors.NewConfigError(f, err.Error())
		}
	}

	cfg := DefaultServerConfig()
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
	cfg.TavilyAPIKey = strings.TrimSpace(os.Getenv(EnvTavilyAPIKey))
	cfg.Addr = getEnv(EnvListenAddr, cfg.Addr)
	cfg.DataFile = getEnv(EnvDataFile, cfg.DataFile)
	cfg.Model = getEnv(EnvModel, cfg.Model)
	cfg.EmbedModel = getEnv(EnvEmbedModel, cfg.EmbedModel)
	cfg.RateLimit = getEnvInt(EnvRateLimit, cfg.RateLimit)
	cfg.MaxSteps = getEnvInt(EnvMaxSteps, cfg.MaxSteps)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that both API keys are present
func (c ServerConfig) Validate() error {
	if c.GeminiAPIKey == "" || c.TavilyAPIKey == "" {
		return apierrors.NewConfigError(
			EnvGeminiAPIKey+"/"+EnvTavilyAPIKey,
			"GEMINI_API_KEY and TAVILY_API_KEY must be set in the environment or .env file",
		)
	}
	if c.MaxSteps <= 0 {
		return apierrors.NewConfigError(EnvMaxSteps, "must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
