package generator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/chatmodel"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llmutils"
	"github.com/effective-security/edgeagent/pkg/metricskey"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "generator")

// ModelFactory creates the model on first use.
type ModelFactory func(ctx context.Context) (llms.Model, error)

// Option configures the Backend.
type Option func(*Backend)

// WithTemplate sets the chat template used for models implementing llms.Completer.
func WithTemplate(tpl ChatTemplate) Option {
	return func(b *Backend) {
		if tpl != nil {
			b.template = tpl
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(b *Backend) {
		b.temperature = temperature
	}
}

// WithTopP sets the nucleus sampling threshold.
func WithTopP(topP float64) Option {
	return func(b *Backend) {
		b.topP = topP
	}
}

// WithStopWords sets additional stop words.
func WithStopWords(words ...string) Option {
	return func(b *Backend) {
		b.stopWords = append(b.stopWords, words...)
	}
}

// WithNativeTemplate forces the role-tagged messages to be sent to the model,
// even when it accepts raw prompts.
func WithNativeTemplate() Option {
	return func(b *Backend) {
		b.native = true
	}
}

// Backend is the Generator backed by an llms.Model.
type Backend struct {
	factory     ModelFactory
	template    ChatTemplate
	temperature float64
	topP        float64
	stopWords   []string
	native      bool

	initLock sync.Mutex
	ready    bool
	model    llms.Model

	// lock serializes inference calls
	lock sync.Mutex
}

var _ Generator = (*Backend)(nil)

// New returns a Backend that creates its model with the factory on first use.
func New(factory ModelFactory, opts ...Option) *Backend {
	b := &Backend{
		factory:     factory,
		template:    Zephyr,
		temperature: DefaultTemperature,
		topP:        DefaultTopP,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewWithModel returns a Backend for an existing model.
func NewWithModel(model llms.Model, opts ...Option) *Backend {
	return New(func(context.Context) (llms.Model, error) {
		return model, nil
	}, opts...)
}

// Template returns the chat template.
func (b *Backend) Template() ChatTemplate {
	return b.template
}

// IsReady returns true once the model has been created.
func (b *Backend) IsReady() bool {
	b.initLock.Lock()
	defer b.initLock.Unlock()
	return b.ready
}

// Init creates the model, if not created yet.
// A failed initialization is retried on the next call.
func (b *Backend) Init(ctx context.Context) error {
	_, err := b.getModel(ctx)
	return err
}

func (b *Backend) getModel(ctx context.Context) (llms.Model, error) {
	b.initLock.Lock()
	defer b.initLock.Unlock()

	if b.ready {
		return b.model, nil
	}
	if b.factory == nil {
		return nil, errors.WithMessage(ErrNotReady, "model factory is not set")
	}

	started := time.Now()
	model, err := b.factory(ctx)
	if err != nil {
		return nil, errors.WithMessage(ErrNotReady, err.Error())
	}
	if model == nil {
		return nil, errors.WithMessage(ErrNotReady, "model factory returned nil")
	}

	b.model = model
	b.ready = true

	_, raw := model.(llms.Completer)
	logger.ContextKV(ctx, xlog.INFO,
		"status", "model_loaded",
		"model", model.GetName(),
		"provider", model.GetProviderType(),
		"raw_prompt", raw && !b.native,
		"template", b.template.Name(),
		"elapsed", time.Since(started).String(),
	)
	return model, nil
}

// Generate returns the completion for the messages.
func (b *Backend) Generate(ctx context.Context, messages []llms.Message, maxNewTokens int) (string, error) {
	if len(messages) == 0 {
		return "", errors.WithStack(ErrEmptyMessages)
	}

	model, err := b.getModel(ctx)
	if err != nil {
		return "", err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	opts := []llms.CallOption{
		llms.WithMaxTokens(values.NumbersCoalesce(maxNewTokens, DefaultMaxNewTokens)),
		llms.WithTemperature(b.temperature),
		llms.WithTopP(b.topP),
	}
	if chatCtx := chatmodel.GetChatContext(ctx); chatCtx != nil {
		opts = append(opts, llms.WithMetadata(map[string]any{
			"chat_id": chatCtx.GetChatID(),
			"run_id":  chatCtx.RunID(),
		}))
	}

	name := model.GetName()
	started := time.Now()

	var resp *llms.ContentResponse
	if completer, ok := model.(llms.Completer); ok && !b.native {
		prompt, ferr := b.template.Format(messages)
		if ferr != nil {
			return "", ferr
		}
		opts = append(opts, llms.WithStopWords(b.stops()))
		metricskey.StatsLLMBytesSent.IncrCounter(float64(len(prompt)), name)
		resp, err = completer.Complete(ctx, prompt, opts...)
	} else {
		if len(b.stopWords) > 0 {
			opts = append(opts, llms.WithStopWords(b.stopWords))
		}
		metricskey.StatsLLMBytesSent.IncrCounter(float64(llmutils.CountMessagesContentSize(messages)), name)
		resp, err = model.GenerateContent(ctx, messages, opts...)
	}
	metricskey.PerfGeneration.MeasureSince(started, name)
	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messages)), name)

	if err != nil {
		metricskey.StatsLLMGenerationsFailed.IncrCounter(1, name)
		return "", errors.WithMessagef(err, "generation failed")
	}

	text, err := resp.Text()
	if err != nil {
		metricskey.StatsLLMGenerationsFailed.IncrCounter(1, name)
		return "", err
	}

	in, out, _ := llmutils.CountTokens(resp)
	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), name)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(in), name)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(out), name)

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "generated",
		"model", name,
		"messages", len(messages),
		"input_tokens", in,
		"output_tokens", out,
		"elapsed", time.Since(started).String(),
	)

	return strings.TrimSpace(text), nil
}

func (b *Backend) stops() []string {
	stops := append([]string{}, b.template.StopWords()...)
	return append(stops, b.stopWords...)
}
