// Package config provides the configuration of the edgeagent CLI.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/agent"
	"github.com/effective-security/edgeagent/generator"
	"github.com/effective-security/edgeagent/pkg/llmfactory"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "config")

// DefaultLocation is the location of the config file
// relative to the XDG config directories.
const DefaultLocation = "edgeagent/config.yaml"

// Tool names
const (
	ToolSearch  = "search"
	ToolWeather = "weather"
	ToolFetch   = "fetch"
)

// Search providers
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchTavily     = "tavily"
)

// Config of the agent, the generator, the LLM providers and the tools.
type Config struct {
	Agent     Agent             `json:"agent" yaml:"agent" toml:"agent"`
	Generator Generator         `json:"generator" yaml:"generator" toml:"generator"`
	LLM       llmfactory.Config `json:"llm" yaml:"llm" toml:"llm"`
	Tools     Tools             `json:"tools" yaml:"tools" toml:"tools"`
}

// Agent specifies the agent loop.
type Agent struct {
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" toml:"max_iterations,omitempty" validate:"gte=0,lte=100"`
	MaxNewTokens  int `json:"max_new_tokens,omitempty" yaml:"max_new_tokens,omitempty" toml:"max_new_tokens,omitempty" validate:"gte=0"`
	// StripToolMarkup removes the tool tags from answers calling unknown tools,
	// enabled if not set.
	StripToolMarkup *bool `json:"strip_tool_markup,omitempty" yaml:"strip_tool_markup,omitempty" toml:"strip_tool_markup,omitempty"`
	// SystemPromptFile is a text/template file of the system prompt.
	SystemPromptFile string `json:"system_prompt_file,omitempty" yaml:"system_prompt_file,omitempty" toml:"system_prompt_file,omitempty"`
}

// Generator specifies the text generation.
type Generator struct {
	// Model is the preferred model name, the default model of
	// the default provider is used if not set or not available.
	Model string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`

	// ChatTemplate is used for providers accepting raw prompts:
	// zephyr|tinyllama|chatml|llama3|jinja|native
	ChatTemplate string `json:"chat_template,omitempty" yaml:"chat_template,omitempty" toml:"chat_template,omitempty" validate:"omitempty,oneof=zephyr tinyllama chatml llama3 jinja native"`

	// ChatTemplateFile is the Jinja2 template used with the jinja chat template.
	ChatTemplateFile string `json:"chat_template_file,omitempty" yaml:"chat_template_file,omitempty" toml:"chat_template_file,omitempty" validate:"required_if=ChatTemplate jinja"`
	BOSToken         string `json:"bos_token,omitempty" yaml:"bos_token,omitempty" toml:"bos_token,omitempty"`
	EOSToken         string `json:"eos_token,omitempty" yaml:"eos_token,omitempty" toml:"eos_token,omitempty"`

	// Temperature and TopP are set to the defaults if not specified,
	// zero is a valid value.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty" toml:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	StopWords   []string `json:"stop_words,omitempty" yaml:"stop_words,omitempty" toml:"stop_words,omitempty"`
}

// Tools specifies the tools available to the agent.
type Tools struct {
	// Enabled is the ordered list of tools: search|weather|fetch
	Enabled []string `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty" validate:"dive,oneof=search weather fetch"`
	// Timeout is the bound of one tool call, as a duration string.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	// SearchProvider is duckduckgo|tavily
	SearchProvider string   `json:"search_provider,omitempty" yaml:"search_provider,omitempty" toml:"search_provider,omitempty" validate:"omitempty,oneof=duckduckgo tavily"`
	Search         Endpoint `json:"search,omitempty" yaml:"search,omitempty" toml:"search,omitempty"`
	Weather        Endpoint `json:"weather,omitempty" yaml:"weather,omitempty" toml:"weather,omitempty"`
	Fetch          Fetch    `json:"fetch,omitempty" yaml:"fetch,omitempty" toml:"fetch,omitempty"`
}

// Fetch specifies the web page fetch tool.
type Fetch struct {
	// Format is text|markdown
	Format    string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty" validate:"omitempty,oneof=text markdown"`
	MaxLength int    `json:"max_length,omitempty" yaml:"max_length,omitempty" toml:"max_length,omitempty" validate:"gte=0"`
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty" toml:"user_agent,omitempty"`
}

// Endpoint overrides the endpoint of a tool.
type Endpoint struct {
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty" validate:"omitempty,url"`
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty" toml:"user_agent,omitempty"`
}

// Default returns the config with defaults applied.
func Default() *Config {
	cfg := new(Config)
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets the values not specified in the config.
func (c *Config) ApplyDefaults() {
	c.Agent.MaxIterations = values.NumbersCoalesce(c.Agent.MaxIterations, agent.DefaultMaxIterations)
	c.Agent.MaxNewTokens = values.NumbersCoalesce(c.Agent.MaxNewTokens, generator.DefaultMaxNewTokens)
	if c.Agent.StripToolMarkup == nil {
		strip := true
		c.Agent.StripToolMarkup = &strip
	}

	c.Generator.ChatTemplate = values.StringsCoalesce(strings.ToLower(c.Generator.ChatTemplate), "zephyr")
	c.Generator.Temperature = floatOrDefault(c.Generator.Temperature, generator.DefaultTemperature)
	c.Generator.TopP = floatOrDefault(c.Generator.TopP, generator.DefaultTopP)

	if len(c.Tools.Enabled) == 0 {
		c.Tools.Enabled = []string{ToolSearch, ToolWeather}
	}
	c.Tools.Timeout = values.StringsCoalesce(c.Tools.Timeout, tools.DefaultTimeout.String())
	c.Tools.SearchProvider = values.StringsCoalesce(strings.ToLower(c.Tools.SearchProvider), SearchDuckDuckGo)
}

func floatOrDefault(v *float64, def float64) *float64 {
	if v != nil {
		return v
	}
	return &def
}

// Sampling returns the temperature and top_p,
// with the defaults for the values not specified.
func (g *Generator) Sampling() (temperature, topP float64) {
	temperature, topP = generator.DefaultTemperature, generator.DefaultTopP
	if g.Temperature != nil {
		temperature = *g.Temperature
	}
	if g.TopP != nil {
		topP = *g.TopP
	}
	return
}

// Validate returns an error if the config is invalid.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	if _, err = c.ToolTimeout(); err != nil {
		return err
	}
	return nil
}

// ToolTimeout returns the parsed tool timeout.
func (c *Config) ToolTimeout() (time.Duration, error) {
	if c.Tools.Timeout == "" {
		return tools.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Tools.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid tools timeout %q", c.Tools.Timeout)
	}
	if d <= 0 {
		return 0, errors.Newf("invalid tools timeout %q", c.Tools.Timeout)
	}
	return d, nil
}

// StripToolMarkup returns true if the tool markup is removed from answers.
func (c *Config) StripToolMarkup() bool {
	return c.Agent.StripToolMarkup == nil || *c.Agent.StripToolMarkup
}

// Load returns the config from the file, with defaults applied.
// YAML and JSON files are expanded with environment variables.
// If file is empty, the default location is searched
// and the defaults are returned when no file is found.
func Load(file string) (*Config, error) {
	if file == "" {
		file = DefaultPath()
		if file == "" {
			logger.KV(xlog.DEBUG, "status", "using_defaults")
			return Default(), nil
		}
	}

	cfg := new(Config)
	var err error
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		err = loadTOML(file, cfg)
	default:
		err = configloader.UnmarshalAndExpand(file, cfg)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load config %s", file)
	}

	cfg.ApplyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(file))

	logger.KV(xlog.DEBUG,
		"status", "loaded",
		"file", file,
		"providers", len(cfg.LLM.Providers),
	)
	return cfg, nil
}

// DefaultPath returns the config file in the XDG config directories,
// or empty string if it does not exist.
func DefaultPath() string {
	path, err := xdg.SearchConfigFile(DefaultLocation)
	if err != nil {
		return ""
	}
	return path
}

func loadTOML(file string, cfg *Config) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return errors.WithStack(err)
	}
	return toml.Unmarshal([]byte(os.ExpandEnv(string(b))), cfg)
}

// resolvePaths makes the referenced files relative to the config folder.
func (c *Config) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Agent.SystemPromptFile = resolve(c.Agent.SystemPromptFile)
	c.Generator.ChatTemplateFile = resolve(c.Generator.ChatTemplateFile)
}

// YAML returns the config in YAML format, the provider tokens are redacted.
func (c *Config) YAML() (string, error) {
	cp := *c
	cp.LLM.Providers = make([]*llmfactory.ProviderConfig, len(c.LLM.Providers))
	for i, p := range c.LLM.Providers {
		pc := *p
		if pc.Token != "" {
			pc.Token = "***"
		}
		cp.LLM.Providers[i] = &pc
	}

	b, err := yaml.Marshal(&cp)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}
