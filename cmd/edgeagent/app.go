package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/agent"
	"github.com/effective-security/edgeagent/callbacks"
	"github.com/effective-security/edgeagent/config"
	"github.com/effective-security/edgeagent/generator"
	"github.com/effective-security/edgeagent/pkg/llmfactory"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/edgeagent/tools/duckduckgo"
	"github.com/effective-security/edgeagent/tools/tavily"
	"github.com/effective-security/edgeagent/tools/weather"
	"github.com/effective-security/edgeagent/tools/webfetch"
	"github.com/effective-security/xlog"
)

// App is the wired agent with its generator and tools.
type App struct {
	Config   *config.Config
	Backend  *generator.Backend
	Registry *tools.Registry
	Agent    *agent.Agent
}

// loadConfig returns the config with the command line overrides applied.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	if c.Model != "" {
		cfg.Generator.Model = c.Model
	}
	if c.MaxIterations > 0 {
		cfg.Agent.MaxIterations = c.MaxIterations
	}
	return cfg, nil
}

// newApp creates the application from the config,
// the model is created on first use.
func (c *CLI) newApp() (*App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	factory := llmfactory.New(&cfg.LLM)
	backend, err := newGenerator(cfg, func(ctx context.Context) (llms.Model, error) {
		return factory.ModelByName(ctx, cfg.Generator.Model)
	})
	if err != nil {
		return nil, err
	}
	return c.newAppWithGenerator(cfg, backend, backend)
}

func (c *CLI) newAppWithGenerator(cfg *config.Config, backend *generator.Backend, gen generator.Generator) (*App, error) {
	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}

	opts, err := c.agentOptions(cfg)
	if err != nil {
		return nil, err
	}

	ag, err := agent.New(gen, registry, opts...)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Backend:  backend,
		Registry: registry,
		Agent:    ag,
	}, nil
}

func (c *CLI) agentOptions(cfg *config.Config) ([]agent.Option, error) {
	opts := []agent.Option{
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithMaxNewTokens(cfg.Agent.MaxNewTokens),
		agent.WithStripToolMarkup(cfg.StripToolMarkup()),
		agent.WithCallback(c.newCallback()),
	}

	if cfg.Agent.SystemPromptFile != "" {
		b, err := os.ReadFile(cfg.Agent.SystemPromptFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read system prompt")
		}
		opts = append(opts, agent.WithSystemPrompt(string(b)))
	}
	return opts, nil
}

func (c *CLI) newCallback() agent.Callback {
	mode := callbacks.ModeDefault
	if c.Verbose {
		mode = callbacks.ModeVerbose
	}

	cb := callbacks.NewFanout(
		callbacks.NewPrinter(c.Stdout(), mode),
		callbacks.NewPackageLogger(logger),
	)

	if c.Trace {
		pad := callbacks.NewScratchpad(mode)
		pad.OnEnd = func(_ *callbacks.RunStats, trace []byte) {
			_, _ = c.Stderr().Write(trace)
		}
		cb.Add(pad)
	}
	return cb
}

func newGenerator(cfg *config.Config, factory generator.ModelFactory) (*generator.Backend, error) {
	gc := cfg.Generator
	temperature, topP := gc.Sampling()
	opts := []generator.Option{
		generator.WithTemperature(temperature),
		generator.WithTopP(topP),
	}
	if len(gc.StopWords) > 0 {
		opts = append(opts, generator.WithStopWords(gc.StopWords...))
	}

	switch gc.ChatTemplate {
	case "native":
		opts = append(opts, generator.WithNativeTemplate())
	case "jinja":
		b, err := os.ReadFile(gc.ChatTemplateFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read chat template")
		}
		tpl, err := generator.NewJinjaTemplate(string(b), gc.BOSToken, gc.EOSToken, gc.StopWords...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, generator.WithTemplate(tpl))
	default:
		tpl, err := generator.TemplateByName(gc.ChatTemplate)
		if err != nil {
			return nil, err
		}
		opts = append(opts, generator.WithTemplate(tpl))
	}

	return generator.New(factory, opts...), nil
}

// newRegistry registers the enabled tools in the configured order.
func newRegistry(cfg *config.Config) (*tools.Registry, error) {
	timeout, err := cfg.ToolTimeout()
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(tools.WithTimeout(timeout))
	for _, name := range cfg.Tools.Enabled {
		tool, err := newTool(cfg, name, timeout)
		if err != nil {
			return nil, err
		}
		if err = registry.Register(tool); err != nil {
			return nil, err
		}
	}

	logger.KV(xlog.DEBUG,
		"status", "tools_registered",
		"tools", registry.Names(),
		"timeout", timeout.String(),
	)
	return registry, nil
}

func newTool(cfg *config.Config, name string, timeout time.Duration) (tools.ITool, error) {
	tc := cfg.Tools
	switch name {
	case config.ToolSearch:
		if tc.SearchProvider == config.SearchTavily {
			t, err := tavily.New()
			if err != nil {
				return nil, errors.WithMessage(err, "failed to create search tool")
			}
			t = t.WithName(config.ToolSearch).
				WithHTTPClient(httpClient(timeout))
			if tc.Search.BaseURL != "" {
				t = t.WithBaseURL(tc.Search.BaseURL)
			}
			return t, nil
		}

		t := duckduckgo.New().
			WithHTTPClient(httpClient(timeout)).
			WithUserAgent(tc.Search.UserAgent)
		if tc.Search.BaseURL != "" {
			t = t.WithBaseURL(tc.Search.BaseURL)
		}
		return t, nil

	case config.ToolWeather:
		t := weather.New().
			WithHTTPClient(httpClient(timeout)).
			WithUserAgent(tc.Weather.UserAgent)
		if tc.Weather.BaseURL != "" {
			t = t.WithBaseURL(tc.Weather.BaseURL)
		}
		return t, nil

	case config.ToolFetch:
		t := webfetch.New().
			WithUserAgent(tc.Fetch.UserAgent)
		if tc.Fetch.Format != "" {
			t = t.WithFormat(webfetch.Format(tc.Fetch.Format))
		}
		if tc.Fetch.MaxLength > 0 {
			t = t.WithMaxLength(tc.Fetch.MaxLength)
		}
		return t, nil
	}
	return nil, errors.Errorf("unsupported tool: %s", name)
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (a *App) describe() string {
	return fmt.Sprintf("%s: %d tools, max %d iterations",
		a.Agent.Name(), a.Registry.Len(), a.Agent.MaxIterations())
}
