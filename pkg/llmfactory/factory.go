package llmfactory

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llms/anthropic"
	"github.com/effective-security/edgeagent/pkg/llms/bedrock"
	"github.com/effective-security/edgeagent/pkg/llms/googleai"
	"github.com/effective-security/edgeagent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Factory is the interface for creating and managing LLM models.
// Models are created on first use and cached.
type Factory interface {
	// DefaultModel returns the default LLM model.
	DefaultModel(ctx context.Context) (llms.Model, error)
	// ModelByType returns an LLM model by its type, e.g.
	// OPENAI, ANTHROPIC, GOOGLEAI, BEDROCK
	ModelByType(ctx context.Context, providerType string) (llms.Model, error)
	// ModelByName returns an LLM model by its name,
	// if the model is not found, it will return the default model.
	ModelByName(ctx context.Context, preferredModels ...string) (llms.Model, error)
}

// Load returns the factory for the config file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	defaultProvider *ProviderConfig
	byType          map[string]llms.Model
	byName          map[string]llms.Model
	lock            sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:    cfg,
		byType: make(map[string]llms.Model),
		byName: make(map[string]llms.Model),
	}

	if cfg.DefaultProvider != "" {
		for _, provider := range cfg.Providers {
			if provider.Name == cfg.DefaultProvider {
				f.defaultProvider = provider
				break
			}
		}
	}

	if f.defaultProvider == nil && len(f.cfg.Providers) > 0 {
		f.defaultProvider = f.cfg.Providers[0]
	}

	return f
}

// CreateLLM creates the model for the provider.
func CreateLLM(ctx context.Context, cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	provType := strings.ToUpper(cfg.Type)
	switch llms.ProviderType(provType) {
	case llms.ProviderOpenAI, "OPEN_AI":
		return newOpenAI(cfg, preferredModels...)
	case llms.ProviderAnthropic:
		return newAnthropic(cfg, preferredModels...)
	case llms.ProviderGoogleAI:
		return newGoogleAI(ctx, cfg, preferredModels...)
	case llms.ProviderBedrock:
		return newBedrock(ctx, cfg, preferredModels...)
	}
	return nil, errors.Errorf("unsupported provider type: %s", provType)
}

func newOpenAI(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.FindModel(preferredModels...)),
		openai.WithRawPrompt(cfg.RawPrompt),
	}
	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, openai.WithOrganization(cfg.Organization))
	}
	return openai.NewModel(opts...)
}

func newAnthropic(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Token != "" {
		opts = append(opts, anthropic.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	llm, err := anthropic.New(opts...)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

func newGoogleAI(ctx context.Context, cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Token != "" {
		opts = append(opts, googleai.WithAPIKey(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, googleai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

func newBedrock(ctx context.Context, cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []bedrock.Option{
		bedrock.WithModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Region != "" {
		opts = append(opts, bedrock.WithRegion(cfg.Region))
	}
	return bedrock.NewModel(ctx, opts...)
}

// DefaultModel returns the default model of the default provider.
func (f *factory) DefaultModel(ctx context.Context) (llms.Model, error) {
	if f.defaultProvider == nil {
		return nil, errors.New("no providers configured")
	}
	return f.ModelByName(ctx, f.defaultProvider.DefaultModel)
}

func (f *factory) ModelByType(ctx context.Context, providerType string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byType[providerType]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if strings.EqualFold(cfg.Type, providerType) {
			model, err := f.create(ctx, cfg)
			if err != nil {
				return nil, err
			}
			f.byType[providerType] = model
			return model, nil
		}
	}
	return nil, errors.Errorf("provider not found for type: %s", providerType)
}

func (f *factory) ModelByName(ctx context.Context, modelNames ...string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, modelName := range modelNames {
		if client, ok := f.byName[modelName]; ok {
			return client, nil
		}

		// the default provider wins when several providers serve the model
		providers := f.cfg.Providers
		if f.defaultProvider != nil {
			providers = append([]*ProviderConfig{f.defaultProvider}, providers...)
		}
		for _, cfg := range providers {
			if !cfg.HasModel(modelName) {
				continue
			}
			model, err := f.create(ctx, cfg, modelName)
			if err != nil {
				logger.ContextKV(ctx, xlog.WARNING,
					"reason", "create_llm",
					"provider", cfg.Name,
					"model", modelName,
					"err", err.Error(),
				)
				continue
			}
			f.byName[modelName] = model
			return model, nil
		}
	}

	if f.defaultProvider == nil {
		return nil, errors.New("no providers configured")
	}

	name := f.defaultProvider.DefaultModel
	if client, ok := f.byName[name]; ok && name != "" {
		return client, nil
	}
	model, err := f.create(ctx, f.defaultProvider)
	if err != nil {
		return nil, err
	}
	if name != "" {
		f.byName[name] = model
	}
	return model, nil
}

func (f *factory) create(ctx context.Context, cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	model, err := NewLLM(ctx, cfg, preferredModels...)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create %s model", cfg.Name)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "created_llm",
		"type", cfg.Type,
		"name", cfg.Name,
		"model", model.GetName(),
	)
	return model, nil
}
