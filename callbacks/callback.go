package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/edgeagent/agent"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llmutils"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ agent.Callback = (*Noop)(nil)
	_ tools.Callback = (*Noop)(nil)
	_ agent.Callback = (*Printer)(nil)
	_ tools.Callback = (*Printer)(nil)
	_ agent.Callback = (*PackageLogger)(nil)
	_ tools.Callback = (*PackageLogger)(nil)
	_ agent.Callback = (*Fanout)(nil)
	_ tools.Callback = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []agent.Callback
}

func NewFanout(callbacks ...agent.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback agent.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnRunStart(ctx context.Context, a agent.IAgent, input string) {
	for _, callback := range l.callbacks {
		callback.OnRunStart(ctx, a, input)
	}
}

func (l *Fanout) OnRunEnd(ctx context.Context, a agent.IAgent, input string, res *agent.Result) {
	for _, callback := range l.callbacks {
		callback.OnRunEnd(ctx, a, input, res)
	}
}

func (l *Fanout) OnGenerationStart(ctx context.Context, a agent.IAgent, messages []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnGenerationStart(ctx, a, messages)
	}
}

func (l *Fanout) OnGenerationEnd(ctx context.Context, a agent.IAgent, completion string, err error) {
	for _, callback := range l.callbacks {
		callback.OnGenerationEnd(ctx, a, completion, err)
	}
}

func (l *Fanout) OnToolNotFound(ctx context.Context, a agent.IAgent, call agent.ToolCall) {
	for _, callback := range l.callbacks {
		callback.OnToolNotFound(ctx, a, call)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, input, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, input, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnRunStart(ctx context.Context, a agent.IAgent, input string) {}
func (l *Noop) OnRunEnd(ctx context.Context, a agent.IAgent, input string, res *agent.Result) {}
func (l *Noop) OnGenerationStart(ctx context.Context, a agent.IAgent, messages []llms.Message) {}
func (l *Noop) OnGenerationEnd(ctx context.Context, a agent.IAgent, completion string, err error) {}
func (l *Noop) OnToolNotFound(ctx context.Context, a agent.IAgent, call agent.ToolCall) {}
func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, input string) {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {}

// Printer is a callback handler that prints to the Writer.
// In the default mode only the tool calls are printed,
// one "[🛠 Tool] name(input) -> result" line per call.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) printf(verbose bool, format string, args ...any) {
	if verbose && l.Mode != ModeVerbose {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, format, args...)
}

func (l *Printer) OnRunStart(ctx context.Context, a agent.IAgent, input string) {
	l.printf(true, "Run Start: %s\nInput: %s\n", a.Name(), input)
}

func (l *Printer) OnRunEnd(ctx context.Context, a agent.IAgent, input string, res *agent.Result) {
	l.printf(true, "Run End: %s: %s after %d iterations\n", a.Name(), res.Outcome, res.Iterations)
}

func (l *Printer) OnGenerationStart(ctx context.Context, a agent.IAgent, messages []llms.Message) {
	l.printf(true, "Generation: %s: %d messages\n", a.Name(), len(messages))
}

func (l *Printer) OnGenerationEnd(ctx context.Context, a agent.IAgent, completion string, err error) {
	if err != nil {
		l.printf(true, "Generation Error: %s: %s\n", a.Name(), err.Error())
		return
	}
	l.printf(true, "Completion: %s\n", completion)
}

func (l *Printer) OnToolNotFound(ctx context.Context, a agent.IAgent, call agent.ToolCall) {
	l.printf(true, "Tool Not Found: %s\n", call.Name)
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.printf(false, "[🛠 Tool] %s(%s) -> %s\n", tool.Name(), input, output)
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.printf(false, "[🛠 Tool] %s(%s) -> %s\n", tool.Name(), input, tools.ErrorResult(tool.Name(), err))
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnRunStart(ctx context.Context, a agent.IAgent, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_start",
		"agent", a.Name(),
		"chat_id", a.ChatID(),
		"input", slices.StringUpto(input, 64),
	)
}

func (l *PackageLogger) OnRunEnd(ctx context.Context, a agent.IAgent, input string, res *agent.Result) {
	if res.Err != nil {
		l.logger.ContextKV(ctx, xlog.ERROR,
			"event", "run_error",
			"agent", a.Name(),
			"chat_id", a.ChatID(),
			"err", res.Err.Error(),
		)
		return
	}
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_end",
		"agent", a.Name(),
		"chat_id", a.ChatID(),
		"outcome", res.Outcome.String(),
		"iterations", res.Iterations,
	)
}

func (l *PackageLogger) OnGenerationStart(ctx context.Context, a agent.IAgent, messages []llms.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "generation_start",
		"agent", a.Name(),
		"messages", len(messages),
		"last_user", slices.StringUpto(llmutils.FindLastUserQuestion(messages), 64),
	)
}

func (l *PackageLogger) OnGenerationEnd(ctx context.Context, a agent.IAgent, completion string, err error) {
	if err != nil {
		l.logger.ContextKV(ctx, xlog.ERROR,
			"event", "generation_error",
			"agent", a.Name(),
			"err", err.Error(),
		)
		return
	}
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "generation_end",
		"agent", a.Name(),
		"completion", slices.StringUpto(completion, 64),
	)
}

func (l *PackageLogger) OnToolNotFound(ctx context.Context, a agent.IAgent, call agent.ToolCall) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_not_found",
		"agent", a.Name(),
		"tool", call.Name,
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output", slices.StringUpto(output, 64),
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}
