package llmfactory_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llmfactory"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadConfig(t *testing.T) {
	cfg, err := llmfactory.LoadConfig("testdata/llm.yaml")
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 4)
	assert.Equal(t, "local", cfg.DefaultProvider)

	local := cfg.Providers[0]
	assert.Equal(t, "OPENAI", local.Type)
	assert.Equal(t, "http://localhost:8080/v1", local.BaseURL)
	assert.True(t, local.RawPrompt)
	assert.Equal(t, "tinyllama", local.FindModel())
	assert.Equal(t, "qwen2.5-0.5b-instruct", local.FindModel("unknown", "qwen2.5-0.5b-instruct"))
	assert.True(t, local.HasModel("tinyllama"))
	assert.False(t, local.HasModel("gpt-4o"))
	assert.False(t, local.HasModel(""))

	assert.Equal(t, "us-east-1", cfg.Providers[3].Region)

	empty, err := llmfactory.LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, empty.Providers)

	_, err = llmfactory.LoadConfig("testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load LLM config testdata/invalid.yaml")

	_, err = llmfactory.LoadConfig("testdata/notfound.yaml")
	require.Error(t, err)
}

func Test_Factory(t *testing.T) {
	ctx := context.Background()
	cfg, err := llmfactory.LoadConfig("testdata/llm.yaml")
	require.NoError(t, err)

	created := 0
	llmfactory.NewLLM = func(_ context.Context, cfg *llmfactory.ProviderConfig, preferredModels ...string) (llms.Model, error) {
		created++
		return &fakeLLM{provider: cfg.Name, model: cfg.FindModel(preferredModels...)}, nil
	}
	defer func() {
		llmfactory.NewLLM = llmfactory.CreateLLM
	}()

	f := llmfactory.New(cfg)
	model, err := f.DefaultModel(ctx)
	require.NoError(t, err)
	fm := model.(*fakeLLM)
	assert.Equal(t, "tinyllama", fm.model)
	assert.Equal(t, "local", fm.provider)

	model, err = f.ModelByName(ctx, "gpt-4o")
	require.NoError(t, err)
	fm = model.(*fakeLLM)
	assert.Equal(t, "gpt-4o", fm.model)
	assert.Equal(t, "openai", fm.provider)

	model, err = f.ModelByName(ctx, "unknown", "claude-3-5-haiku-latest")
	require.NoError(t, err)
	fm = model.(*fakeLLM)
	assert.Equal(t, "claude-3-5-haiku-latest", fm.model)
	assert.Equal(t, "anthropic", fm.provider)

	// falls back to the default
	model, err = f.ModelByName(ctx, "non-existent-model")
	require.NoError(t, err)
	fm = model.(*fakeLLM)
	assert.Equal(t, "tinyllama", fm.model)
	assert.Equal(t, "local", fm.provider)

	model, err = f.ModelByType(ctx, "BEDROCK")
	require.NoError(t, err)
	fm = model.(*fakeLLM)
	assert.Equal(t, "us.meta.llama3-2-1b-instruct-v1:0", fm.model)
	assert.Equal(t, "bedrock", fm.provider)

	model, err = f.ModelByType(ctx, "OPENAI")
	require.NoError(t, err)
	assert.Equal(t, "local", model.(*fakeLLM).provider)

	_, err = f.ModelByType(ctx, "GOOGLEAI")
	assert.EqualError(t, err, "provider not found for type: GOOGLEAI")

	// cached
	count := created
	_, err = f.ModelByName(ctx, "gpt-4o")
	require.NoError(t, err)
	_, err = f.ModelByType(ctx, "BEDROCK")
	require.NoError(t, err)
	_, err = f.DefaultModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, count, created)
}

func Test_Factory_Errors(t *testing.T) {
	ctx := context.Background()

	f := llmfactory.New(&llmfactory.Config{})
	_, err := f.DefaultModel(ctx)
	assert.EqualError(t, err, "no providers configured")
	_, err = f.ModelByName(ctx, "gpt-4o")
	assert.EqualError(t, err, "no providers configured")

	llmfactory.NewLLM = func(_ context.Context, cfg *llmfactory.ProviderConfig, _ ...string) (llms.Model, error) {
		return nil, errors.New("no token")
	}
	defer func() {
		llmfactory.NewLLM = llmfactory.CreateLLM
	}()

	f = llmfactory.New(&llmfactory.Config{
		Providers: []*llmfactory.ProviderConfig{
			{Name: "openai", Type: "OPENAI", DefaultModel: "gpt-4o-mini"},
		},
	})
	_, err = f.DefaultModel(ctx)
	assert.EqualError(t, err, "failed to create openai model: no token")
}

func Test_CreateLLM(t *testing.T) {
	ctx := context.Background()

	_, err := llmfactory.CreateLLM(ctx, &llmfactory.ProviderConfig{Type: "AZURE"})
	assert.EqualError(t, err, "unsupported provider type: AZURE")

	model, err := llmfactory.CreateLLM(ctx, &llmfactory.ProviderConfig{
		Name:         "local",
		Type:         "openai",
		Token:        "not-needed",
		BaseURL:      "http://localhost:8080/v1",
		RawPrompt:    true,
		DefaultModel: "tinyllama",
	})
	require.NoError(t, err)
	assert.Equal(t, "tinyllama", model.GetName())
	assert.Equal(t, llms.ProviderOpenAI, model.GetProviderType())
	_, ok := model.(llms.Completer)
	assert.True(t, ok)

	model, err = llmfactory.CreateLLM(ctx, &llmfactory.ProviderConfig{
		Name:         "anthropic",
		Type:         "ANTHROPIC",
		Token:        "fakekey",
		DefaultModel: "claude-3-5-haiku-latest",
	})
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderAnthropic, model.GetProviderType())
	_, ok = model.(llms.Completer)
	assert.False(t, ok)
}

type fakeLLM struct {
	provider string
	model    string
}

func (f *fakeLLM) GetName() string {
	return f.model
}

func (f *fakeLLM) GetProviderType() llms.ProviderType {
	return llms.ProviderType(f.provider)
}

func (f *fakeLLM) GenerateContent(context.Context, []llms.Message, ...llms.CallOption) (*llms.ContentResponse, error) {
	return llms.NewTextResponse("ok", "stop", nil), nil
}
