package config

import (
	"fmt"
	"os"

	"github.com/entrhq/surf/pkg/llm/openai"
)

// BuildProvider creates an LLM provider, resolving each setting in
// precedence order: CLI flags, environment variables, config file,
// defaults.
func BuildProvider(cliModel, cliBaseURL, cliAPIKey, defaultModel string) (*openai.Provider, error) {
	model := cliModel
	baseURL := cliBaseURL
	apiKey := cliAPIKey

	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if llmSection := GetLLM(); llmSection != nil {
		if model == "" || model == defaultModel {
			if fromFile := llmSection.GetModel(); fromFile != "" {
				model = fromFile
			}
		}
		if baseURL == "" {
			baseURL = llmSection.GetBaseURL()
		}
		if apiKey == "" {
			apiKey = llmSection.GetAPIKey()
		}
	}

	if model == "" {
		model = defaultModel
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: set OPENAI_API_KEY, pass --api-key, or configure ~/.surf/config.yaml")
	}

	opts := []openai.ProviderOption{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return provider, nil
}
