package llmfactory

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
)

// Config specifies the LLM providers.
type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"dive" toml:"providers"`
	// DefaultProvider specifies the name of the default provider,
	// the first provider is used if not set.
	DefaultProvider string `json:"default_provider,omitempty" yaml:"default_provider,omitempty" toml:"default_provider,omitempty"`
}

// ProviderConfig specifies one provider
type ProviderConfig struct {
	Name string `json:"name" yaml:"name" validate:"required" toml:"name"`
	// Type specifies the type of API to use:
	// OPENAI|ANTHROPIC|GOOGLEAI|BEDROCK
	Type  string `json:"type" yaml:"type" validate:"required,oneof=OPENAI OPEN_AI ANTHROPIC GOOGLEAI BEDROCK" toml:"type"`
	Token string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
	// BaseURL overrides the API endpoint, for example a local llama.cpp server.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	// Organization is the OpenAI organization.
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty" toml:"organization,omitempty"`
	// Region is the AWS region for Bedrock.
	Region string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	// RawPrompt sends prompts formatted with the local chat template,
	// supported by OPENAI compatible servers and Bedrock Meta models.
	RawPrompt       bool     `json:"raw_prompt,omitempty" yaml:"raw_prompt,omitempty" toml:"raw_prompt,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty" toml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty" toml:"available_models,omitempty"`
}

// FindModel returns the first available model from the list,
// or the default model.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// HasModel returns true if the model is the default or one of available.
func (c *ProviderConfig) HasModel(model string) bool {
	return model != "" && (model == c.DefaultModel || slices.Contains(c.AvailableModels, model))
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load LLM config %s", file)
	}
	return cfg, nil
}
