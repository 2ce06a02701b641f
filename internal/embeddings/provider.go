package embeddings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kamusis/tagsuggest/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Dim      int     // required by hashing; informational for openai
	Rate     float64 // requests per second; 0 disables limiting
}

const (
	envProvider = "TAGSUGGEST_EMBEDDINGS_PROVIDER"
	envModel    = "TAGSUGGEST_EMBEDDINGS_MODEL"
	envAPIKey   = "TAGSUGGEST_EMBEDDINGS_API_KEY"
	envBaseURL  = "TAGSUGGEST_EMBEDDINGS_BASE_URL"
	envDim      = "TAGSUGGEST_EMBEDDINGS_DIM"
	envRate     = "TAGSUGGEST_EMBEDDINGS_RATE"
)

// LoadConfig resolves embeddings config from environment variables first, then ~/.tagsuggest/.env.
func LoadConfig() (*Config, error) {
	get := config.GetConfigValue

	provider, err := get(envProvider)
	if err != nil {
		return nil, err
	}
	model, err := get(envModel)
	if err != nil {
		return nil, err
	}
	apiKey, err := get(envAPIKey)
	if err != nil {
		return nil, err
	}
	baseURL, err := get(envBaseURL)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	cfg := &Config{Provider: provider, Model: model, APIKey: apiKey, BaseURL: baseURL}

	dim, err := get(envDim)
	if err != nil {
		return nil, err
	}
	if dim != "" {
		if cfg.Dim, err = strconv.Atoi(dim); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envDim, dim, err)
		}
	}
	rate, err := get(envRate)
	if err != nil {
		return nil, err
	}
	if rate != "" {
		if cfg.Rate, err = strconv.ParseFloat(rate, 64); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envRate, rate, err)
		}
	}
	return cfg, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embeddings provider is not configured (set %s)", envProvider)
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	case "hashing":
		dim := cfg.Dim
		if dim == 0 {
			dim = DefaultHashingDim
		}
		return NewHashing(dim)
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}

// IsNormalized reports whether p is known to return unit-length vectors.
func IsNormalized(p Provider) bool {
	n, ok := p.(interface{ Normalized() bool })
	return ok && n.Normalized()
}
