package agent

import (
	"context"
	"runtime/debug"
	"sync"
	"text/template"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/chatmodel"
	"github.com/effective-security/edgeagent/generator"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/metricskey"
	"github.com/effective-security/edgeagent/store"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "agent")

var (
	// ErrNilGenerator is returned by New when the generator is not provided.
	ErrNilGenerator = errors.New("generator is required")
	// ErrInvalidPrompt is returned for a system prompt template that fails to parse.
	ErrInvalidPrompt = errors.New("invalid system prompt template")
)

// Agent runs the tool calling loop over one conversation.
// Runs are serialized.
type Agent struct {
	cfg       *Config
	generator generator.Generator
	registry  *tools.Registry
	store     store.MessageStore
	prompt    *template.Template

	lock sync.Mutex
}

var _ IAgent = (*Agent)(nil)

// New returns an Agent that uses the generator and the tools in the registry.
// The registry must not be modified after the Agent is created.
func New(gen generator.Generator, registry *tools.Registry, opts ...Option) (*Agent, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}
	cfg := NewConfig(opts...)

	prompt, err := ParsePrompt(cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}

	if registry == nil {
		registry = tools.NewRegistry()
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.ChatID == "" {
		cfg.ChatID = chatmodel.NewChatID()
	}

	a := &Agent{
		cfg:       cfg,
		generator: gen,
		registry:  registry,
		store:     cfg.Store,
		prompt:    prompt,
	}

	// fail early on templates that reference unknown fields
	if _, err = a.SystemPrompt(); err != nil {
		return nil, errors.WithMessage(ErrInvalidPrompt, err.Error())
	}
	return a, nil
}

// Name returns the name of the agent.
func (a *Agent) Name() string {
	return a.cfg.Name
}

// ChatID returns the key of the history in the store.
func (a *Agent) ChatID() string {
	return a.cfg.ChatID
}

// Registry returns the tools available to the agent.
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// MaxIterations returns the iteration budget of a run.
func (a *Agent) MaxIterations() int {
	return a.cfg.MaxIterations
}

// SystemPrompt returns the rendered system message.
func (a *Agent) SystemPrompt() (string, error) {
	return renderPrompt(a.prompt, PromptData{
		Name:      a.cfg.Name,
		Tools:     a.registry.Describe(),
		ToolNames: a.registry.Names(),
	})
}

// History returns a copy of the conversation history.
func (a *Agent) History() []llms.Message {
	return a.store.Messages(a.cfg.ChatID)
}

// Reset clears the conversation history.
func (a *Agent) Reset() {
	a.lock.Lock()
	defer a.lock.Unlock()

	if err := a.store.Reset(a.cfg.ChatID); err != nil {
		logger.KV(xlog.ERROR,
			"reason", "reset",
			"chat_id", a.cfg.ChatID,
			"err", err.Error(),
		)
		return
	}
	logger.KV(xlog.DEBUG,
		"status", "reset",
		"chat_id", a.cfg.ChatID,
	)
}

// Run executes one turn and returns the answer, the fallback message,
// or "Error: {message}" if the run failed.
func (a *Agent) Run(ctx context.Context, input string) string {
	return a.Execute(ctx, input).Answer
}

// Execute executes one turn and returns the Result.
// The history is updated only when the Outcome is OutcomeAnswer.
func (a *Agent) Execute(ctx context.Context, input string) *Result {
	a.lock.Lock()
	defer a.lock.Unlock()

	chatCtx := chatmodel.NewChatContext(a.cfg.ChatID, nil)
	ctx = chatmodel.WithChatContext(ctx, chatCtx)

	var res *Result
	cb := a.cfg.Callback
	if cb != nil {
		err := a.notify(ctx, "run_start", func() {
			cb.OnRunStart(ctx, a, input)
		})
		if err != nil {
			res = &Result{}
			res.setError(err)
		}
	}

	started := time.Now()
	if res == nil {
		res = a.execute(ctx, input)
	}
	metricskey.PerfAgentRun.MeasureSince(started, a.cfg.Name)
	metricskey.StatsAgentIterations.IncrCounter(float64(res.Iterations), a.cfg.Name)

	switch res.Outcome {
	case OutcomeAnswer:
		metricskey.StatsAgentRunsAnswered.IncrCounter(1, a.cfg.Name)
	case OutcomeFallback:
		metricskey.StatsAgentRunsFallback.IncrCounter(1, a.cfg.Name)
	case OutcomeError:
		metricskey.StatsAgentRunsFailed.IncrCounter(1, a.cfg.Name)
	}

	if res.Err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "run_failed",
			"chat_id", chatCtx.GetChatID(),
			"run_id", chatCtx.RunID(),
			"iteration", res.Iterations,
			"err", res.Err.Error(),
		)
	} else {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "run_completed",
			"chat_id", chatCtx.GetChatID(),
			"run_id", chatCtx.RunID(),
			"outcome", res.Outcome.String(),
			"iterations", res.Iterations,
			"tool_calls", len(res.ToolCalls),
			"elapsed", time.Since(started).String(),
		)
	}

	if cb != nil {
		// the history is already updated, the Result is kept
		_ = a.notify(ctx, "run_end", func() {
			cb.OnRunEnd(ctx, a, input, res)
		})
	}
	return res
}

// notify calls the callback and returns its panic as an error.
func (a *Agent) notify(ctx context.Context, event string, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "callback_panic",
				"event", event,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			err = errors.Newf("panic: %v", rec)
		}
	}()
	fn()
	return nil
}

func (a *Agent) execute(ctx context.Context, input string) (res *Result) {
	res = &Result{}

	defer func() {
		if rec := recover(); rec != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "run_panic",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			res.setError(errors.Newf("panic: %v", rec))
		}
	}()

	system, err := a.SystemPrompt()
	if err != nil {
		res.setError(err)
		return res
	}

	history := a.store.Messages(a.cfg.ChatID)
	messages := make([]llms.Message, 0, len(history)+2+2*a.cfg.MaxIterations)
	messages = append(messages, llms.SystemMessage(system))
	messages = append(messages, history...)
	messages = append(messages, llms.UserMessage(input))

	for i := 1; i <= a.cfg.MaxIterations; i++ {
		res.Iterations = i
		res.Transcript = make([]llms.Message, len(messages))
		copy(res.Transcript, messages)

		completion, err := a.generate(ctx, messages)
		if err != nil {
			res.setError(err)
			return res
		}

		call, ok := ParseToolCall(completion)
		if ok && a.registry.Has(call.Name) {
			messages = append(messages, llms.AssistantMessage(completion))
			result := a.invoke(ctx, call)
			res.ToolCalls = append(res.ToolCalls, call)
			messages = append(messages, llms.UserMessage(ToolResultPrefix+result))

			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "tool_called",
				"iteration", i,
				"tool", call.Name,
				"input", slices.StringUpto(call.Input, 64),
				"result", slices.StringUpto(result, 64),
			)
			continue
		}

		answer := completion
		if ok {
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "tool_not_found",
				"iteration", i,
				"tool", call.Name,
			)
			if a.cfg.Callback != nil {
				a.cfg.Callback.OnToolNotFound(ctx, a, call)
			}
			if a.cfg.StripToolMarkup {
				if stripped := StripToolMarkup(completion); stripped != "" {
					answer = stripped
				}
			}
		}

		err = a.store.Add(a.cfg.ChatID, llms.UserMessage(input), llms.AssistantMessage(answer))
		if err != nil {
			res.setError(errors.WithMessage(err, "failed to update history"))
			return res
		}

		res.Outcome = OutcomeAnswer
		res.Answer = answer
		return res
	}

	res.Outcome = OutcomeFallback
	res.Answer = FallbackAnswer
	return res
}

func (a *Agent) generate(ctx context.Context, messages []llms.Message) (string, error) {
	cb := a.cfg.Callback
	if cb != nil {
		cb.OnGenerationStart(ctx, a, messages)
	}

	completion, err := a.generator.Generate(ctx, messages, a.cfg.MaxNewTokens)

	if cb != nil {
		cb.OnGenerationEnd(ctx, a, completion, err)
	}
	return completion, err
}

func (a *Agent) invoke(ctx context.Context, call ToolCall) string {
	if a.cfg.Callback == nil {
		return a.registry.Execute(ctx, call.Name, call.Input)
	}
	res, _ := a.registry.Invoke(ctx, call.Name, call.Input, a.cfg.Callback)
	return res
}
