package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/edgeagent/config"
	"github.com/effective-security/edgeagent/generator"
	"github.com/effective-security/edgeagent/mocks/mockgenerator"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestCLI(file string) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &CLI{
		ConfigFile: file,
		LogLevel:   "error",
		stdin:      strings.NewReader(""),
		stdout:     stdout,
		stderr:     stderr,
	}, stdout, stderr
}

func Test_loadConfig(t *testing.T) {
	t.Setenv("EDGEAGENT_TEST_TOKEN", "secret")

	cli, _, _ := newTestCLI("testdata/config.yaml")
	cfg, err := cli.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Agent.MaxIterations)
	assert.Equal(t, "qwen2.5-0.5b-instruct", cfg.Generator.Model)
	assert.Equal(t, "secret", cfg.LLM.Providers[0].Token)
	assert.True(t, cfg.StripToolMarkup())

	cli.Model = "tinyllama"
	cli.MaxIterations = 5
	cfg, err = cli.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, "tinyllama", cfg.Generator.Model)

	cli.ConfigFile = "testdata/badtool.yaml"
	_, err = cli.loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	cli.ConfigFile = "testdata/missing.yaml"
	_, err = cli.loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func Test_newRegistry(t *testing.T) {
	cfg := config.Default()
	r, err := newRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "weather"}, r.Names())
	assert.Equal(t, "- search: Search the web for information. Input: search query\n"+
		"- weather: Get current weather for a city. Input: city name", r.Describe())
	assert.Equal(t, "10s", r.Timeout().String())

	cfg.Tools.Enabled = []string{config.ToolFetch, config.ToolWeather}
	cfg.Tools.Timeout = "3s"
	r, err = newRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "weather"}, r.Names())
	assert.Equal(t, "3s", r.Timeout().String())

	cfg.Tools.Enabled = []string{config.ToolSearch, config.ToolSearch}
	_, err = newRegistry(cfg)
	assert.EqualError(t, err, "tool search: tool already registered")

	cfg.Tools.Enabled = []string{"calculator"}
	_, err = newRegistry(cfg)
	assert.EqualError(t, err, "unsupported tool: calculator")

	cfg.Tools.Enabled = []string{config.ToolSearch}
	cfg.Tools.Timeout = "never"
	_, err = newRegistry(cfg)
	assert.EqualError(t, err, `invalid tools timeout "never": time: invalid duration "never"`)
}

func Test_newRegistry_Tavily(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.SearchProvider = config.SearchTavily

	t.Setenv("TAVILY_API_KEY", "")
	_, err := newRegistry(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create search tool")

	t.Setenv("TAVILY_API_KEY", "tvly-test")
	r, err := newRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "weather"}, r.Names())
}

func Test_newGenerator(t *testing.T) {
	factory := func(context.Context) (llms.Model, error) {
		return nil, nil
	}

	cfg := config.Default()
	b, err := newGenerator(cfg, factory)
	require.NoError(t, err)
	assert.Equal(t, generator.TemplateZephyr, b.Template().Name())
	assert.False(t, b.IsReady())

	cfg.Generator.ChatTemplate = generator.TemplateLlama3
	b, err = newGenerator(cfg, factory)
	require.NoError(t, err)
	assert.Equal(t, generator.TemplateLlama3, b.Template().Name())

	cfg.Generator.ChatTemplate = "jinja"
	cfg.Generator.ChatTemplateFile = "../../config/testdata/chat.jinja"
	cfg.Generator.BOSToken = "<s>"
	cfg.Generator.EOSToken = "</s>"
	_, err = newGenerator(cfg, factory)
	require.NoError(t, err)

	cfg.Generator.ChatTemplateFile = "testdata/missing.jinja"
	_, err = newGenerator(cfg, factory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read chat template")

	cfg.Generator.ChatTemplate = "alpaca"
	_, err = newGenerator(cfg, factory)
	assert.EqualError(t, err, "unsupported chat template: alpaca")

	// the model is created on Init
	cfg.Generator.ChatTemplate = "native"
	b, err = newGenerator(cfg, factory)
	require.NoError(t, err)
	err = b.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrNotReady)
}

func Test_newAppWithGenerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Tokyo", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte("Tokyo: ☀️ +18°C\n"))
	}))
	defer srv.Close()

	cli, stdout, _ := newTestCLI("testdata/config.yaml")
	cfg, err := cli.loadConfig()
	require.NoError(t, err)
	cfg.Tools.Weather.BaseURL = srv.URL

	gen := mockgenerator.NewMockGenerator(ctrl)
	app, err := cli.newAppWithGenerator(cfg, nil, gen)
	require.NoError(t, err)

	assert.Equal(t, 2, app.Agent.MaxIterations())
	assert.Equal(t, "edgeagent: 3 tools, max 2 iterations", app.describe())

	prompt, err := app.Agent.SystemPrompt()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "You are edgeagent. Tools:\n- weather: "), prompt)

	gomock.InOrder(
		gen.EXPECT().Generate(gomock.Any(), gomock.Len(2), 128).
			Return("<action>weather</action>\n<input>Tokyo</input>", nil),
		gen.EXPECT().Generate(gomock.Any(), gomock.Len(4), 128).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ int) (string, error) {
				assert.Equal(t, llms.UserMessage("Tool result: Tokyo: ☀️ +18°C"), msgs[3])
				return "It is sunny in Tokyo, +18°C.", nil
			}),
	)

	answer := app.Agent.Run(context.Background(), "Weather in Tokyo?")
	assert.Equal(t, "It is sunny in Tokyo, +18°C.", answer)
	assert.Equal(t, "[🛠 Tool] weather(Tokyo) -> Tokyo: ☀️ +18°C\n", stdout.String())
	assert.Len(t, app.Agent.History(), 2)
}

func Test_newAppWithGenerator_Trace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cli, stdout, stderr := newTestCLI("testdata/noproviders.yaml")
	cli.Trace = true
	cli.Verbose = true
	cfg, err := cli.loadConfig()
	require.NoError(t, err)

	gen := mockgenerator.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), gomock.Len(2), 256).Return("Hello!", nil)

	app, err := cli.newAppWithGenerator(cfg, nil, gen)
	require.NoError(t, err)

	assert.Equal(t, "Hello!", app.Agent.Run(context.Background(), "Hi"))
	assert.Contains(t, stdout.String(), "Run Start: edgeagent\nInput: Hi\n")
	assert.Contains(t, stdout.String(), "Run End: edgeagent: answer after 1 iterations\n")
	assert.Contains(t, stderr.String(), "*** Run Ended: answer.")
}

func Test_agentOptions_PromptFile(t *testing.T) {
	cli, _, _ := newTestCLI("")
	cfg := config.Default()
	cfg.Agent.SystemPromptFile = "testdata/missing.tmpl"

	_, err := cli.agentOptions(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read system prompt")
}
