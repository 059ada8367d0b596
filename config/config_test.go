package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/effective-security/edgeagent/config"
	"github.com/effective-security/edgeagent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 256, cfg.Agent.MaxNewTokens)
	assert.True(t, cfg.StripToolMarkup())
	assert.Equal(t, "zephyr", cfg.Generator.ChatTemplate)
	temperature, topP := cfg.Generator.Sampling()
	assert.Equal(t, 0.7, temperature)
	assert.Equal(t, 0.95, topP)
	assert.Equal(t, []string{"search", "weather"}, cfg.Tools.Enabled)
	assert.Equal(t, "duckduckgo", cfg.Tools.SearchProvider)
	assert.Equal(t, "10s", cfg.Tools.Timeout)

	d, err := cfg.ToolTimeout()
	require.NoError(t, err)
	assert.Equal(t, tools.DefaultTimeout, d)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("EDGEAGENT_TEST_TOKEN", "secret-token")

	cfg, err := config.Load("testdata/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 128, cfg.Agent.MaxNewTokens)
	assert.False(t, cfg.StripToolMarkup())
	assert.Equal(t, filepath.Join("testdata", "prompt.tmpl"), cfg.Agent.SystemPromptFile)

	assert.Equal(t, "tinyllama", cfg.Generator.Model)
	assert.Equal(t, "chatml", cfg.Generator.ChatTemplate)
	require.NotNil(t, cfg.Generator.Temperature)
	assert.Equal(t, 0.2, *cfg.Generator.Temperature)
	require.NotNil(t, cfg.Generator.TopP)
	assert.Equal(t, 0.95, *cfg.Generator.TopP)
	assert.Equal(t, []string{"<|user|>"}, cfg.Generator.StopWords)

	require.Len(t, cfg.LLM.Providers, 1)
	assert.Equal(t, "local", cfg.LLM.DefaultProvider)
	assert.Equal(t, "secret-token", cfg.LLM.Providers[0].Token)
	assert.True(t, cfg.LLM.Providers[0].RawPrompt)

	assert.Equal(t, []string{"weather", "search", "fetch"}, cfg.Tools.Enabled)
	assert.Equal(t, "tavily", cfg.Tools.SearchProvider)
	assert.Equal(t, "http://localhost:9090", cfg.Tools.Weather.BaseURL)
	assert.Equal(t, "edgeagent-test", cfg.Tools.Weather.UserAgent)
	d, err := cfg.ToolTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "max_iterations: 5")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "secret-token")
	// the config is not modified
	assert.Equal(t, "secret-token", cfg.LLM.Providers[0].Token)
}

func TestLoad_JSON(t *testing.T) {
	cfg, err := config.Load("testdata/config.json")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Agent.MaxIterations)
	assert.Equal(t, 256, cfg.Agent.MaxNewTokens)
	assert.True(t, cfg.StripToolMarkup())
	assert.Equal(t, []string{"search"}, cfg.Tools.Enabled)
	require.Len(t, cfg.LLM.Providers, 1)
	assert.Equal(t, "ANTHROPIC", cfg.LLM.Providers[0].Type)
}

func TestLoad_TOML(t *testing.T) {
	cfg, err := config.Load("testdata/config.toml")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Agent.MaxIterations)
	assert.Equal(t, "jinja", cfg.Generator.ChatTemplate)
	assert.Equal(t, filepath.Join("testdata", "chat.jinja"), cfg.Generator.ChatTemplateFile)
	assert.Equal(t, "<s>", cfg.Generator.BOSToken)
	assert.Equal(t, "</s>", cfg.Generator.EOSToken)
	assert.Equal(t, "bedrock", cfg.LLM.DefaultProvider)
	require.Len(t, cfg.LLM.Providers, 1)
	assert.Equal(t, "us-west-2", cfg.LLM.Providers[0].Region)
	assert.Equal(t, []string{"weather"}, cfg.Tools.Enabled)
	assert.Equal(t, "3s", cfg.Tools.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load("testdata/notfound.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config testdata/notfound.yaml")

	_, err = config.Load("testdata/notfound.toml")
	require.Error(t, err)

	_, err = config.Load("testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = config.Load("testdata/invalid_timeout.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid tools timeout "soon"`)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Generator.ChatTemplate = "jinja"
	assert.Error(t, cfg.Validate())
	cfg.Generator.ChatTemplateFile = "chat.jinja"
	assert.NoError(t, cfg.Validate())

	topP := 2.0
	cfg.Generator.TopP = &topP
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Tools.Timeout = "-1s"
	assert.EqualError(t, cfg.Validate(), `invalid tools timeout "-1s"`)
}

func TestLoad_DefaultPath(t *testing.T) {
	// no config in the XDG folders of the test environment
	if config.DefaultPath() != "" {
		t.Skip("config exists in the XDG config folder")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_ZeroSampling(t *testing.T) {
	cfg, err := config.Load("testdata/greedy.yaml")
	require.NoError(t, err)

	require.NotNil(t, cfg.Generator.Temperature)
	assert.Equal(t, 0.0, *cfg.Generator.Temperature)
	require.NotNil(t, cfg.Generator.TopP)
	assert.Equal(t, 0.0, *cfg.Generator.TopP)

	temperature, topP := cfg.Generator.Sampling()
	assert.Equal(t, 0.0, temperature)
	assert.Equal(t, 0.0, topP)

	s, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, s, "temperature: 0\n")
	assert.Contains(t, s, "top_p: 0\n")

	// not specified values get the defaults
	cfg = &config.Config{}
	temperature, topP = cfg.Generator.Sampling()
	assert.Equal(t, 0.7, temperature)
	assert.Equal(t, 0.95, topP)
}
