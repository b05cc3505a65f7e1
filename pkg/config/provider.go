package config

import (
	"fmt"
	"os"

	"github.com/tsurutan/e2e-generator-sub000/pkg/llm/openai"
)

// ProviderSettings are the LLM values given on the command line.
type ProviderSettings struct {
	Model   string
	BaseURL string
	APIKey  string
}

// ResolveProvider merges settings with precedence
// CLI flags > environment variables > config file > defaults.
// defaultModel is used when nothing else names a model.
func ResolveProvider(cli ProviderSettings, defaultModel string, file *LLMSection) ProviderSettings {
	out := cli
	if out.APIKey == "" {
		out.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if out.BaseURL == "" {
		out.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if out.Model == "" {
		out.Model = os.Getenv("UIGRAPH_MODEL")
	}

	if file != nil {
		if out.Model == "" {
			out.Model = file.GetModel()
		}
		if out.BaseURL == "" {
			out.BaseURL = file.GetBaseURL()
		}
		if out.APIKey == "" {
			out.APIKey = file.GetAPIKey()
		}
	}

	if out.Model == "" {
		out.Model = defaultModel
	}
	return out
}

// BuildProvider resolves the LLM settings against the global config and
// creates an OpenAI-compatible provider.
func BuildProvider(cli ProviderSettings, defaultModel string) (*openai.Provider, error) {
	file := GetLLM()
	settings := ResolveProvider(cli, defaultModel, file)
	if settings.APIKey == "" {
		return nil, fmt.Errorf("API key is required. Set OPENAI_API_KEY, use --api-key, or configure llm.api_key in ~/.uigraph/config.json")
	}

	opts := []openai.ProviderOption{openai.WithModel(settings.Model)}
	if settings.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(settings.BaseURL))
	}
	if file != nil {
		if t, ok := file.GetTemperature(); ok {
			opts = append(opts, openai.WithTemperature(t))
		}
	}

	provider, err := openai.NewProvider(settings.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}
