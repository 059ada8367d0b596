package agent

import (
	"github.com/effective-security/edgeagent/store"
)

const (
	// DefaultName is the name of the agent used in logs and metrics.
	DefaultName = "edgeagent"
	// DefaultMaxIterations is the number of generations allowed per run.
	DefaultMaxIterations = 3
	// DefaultMaxNewTokens is passed to the generator on each generation.
	DefaultMaxNewTokens = 256
)

// Option is a function that can be used to modify the behavior of the Agent Config.
type Option func(*Config)

// Config of the Agent
type Config struct {
	// Name is used in logs, metrics and callbacks.
	Name string
	// MaxIterations is the maximum number of generations per run.
	MaxIterations int
	// MaxNewTokens is the maximum number of tokens to generate.
	MaxNewTokens int
	// StripToolMarkup removes the tool call tags from answers
	// that name a tool which is not registered.
	StripToolMarkup bool
	// SystemPrompt is the template of the system message.
	SystemPrompt string
	// Store keeps the conversation history.
	Store store.MessageStore
	// ChatID is the key of the history in the Store.
	ChatID string
	// Callback receives the run, generation and tool events.
	Callback Callback
}

// NewConfig returns the Config with defaults and options applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Name:          DefaultName,
		MaxIterations: DefaultMaxIterations,
		MaxNewTokens:  DefaultMaxNewTokens,
		SystemPrompt:  DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName sets the name of the agent.
func WithName(name string) Option {
	return func(o *Config) {
		if name != "" {
			o.Name = name
		}
	}
}

// WithMaxIterations sets the iteration budget, values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(o *Config) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithMaxNewTokens sets the maximum number of tokens per generation.
func WithMaxNewTokens(n int) Option {
	return func(o *Config) {
		if n > 0 {
			o.MaxNewTokens = n
		}
	}
}

// WithStripToolMarkup removes <action> and <input> tags from answers
// that call an unknown tool. By default such answers are returned verbatim.
func WithStripToolMarkup(strip bool) Option {
	return func(o *Config) {
		o.StripToolMarkup = strip
	}
}

// WithSystemPrompt sets the template of the system message.
func WithSystemPrompt(prompt string) Option {
	return func(o *Config) {
		o.SystemPrompt = prompt
	}
}

// WithStore sets the history store, by default the history is kept in memory.
func WithStore(st store.MessageStore) Option {
	return func(o *Config) {
		o.Store = st
	}
}

// WithChatID sets the chat ID of the history.
func WithChatID(chatID string) Option {
	return func(o *Config) {
		o.ChatID = chatID
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(cb Callback) Option {
	return func(o *Config) {
		o.Callback = cb
	}
}
