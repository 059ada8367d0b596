package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "tools")

// DefaultTimeout is the bound on a single tool call.
const DefaultTimeout = 10 * time.Second

var (
	// ErrEmptyInput is returned by tools that require an input.
	ErrEmptyInput = errors.New("empty input")
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
)

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithTimeout sets the per call timeout.
func WithTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithCallback sets the callback used by Execute.
func WithCallback(cb Callback) RegistryOption {
	return func(r *Registry) {
		r.callback = cb
	}
}

// Registry is a mapping from tool name to tool, kept in registration order.
// Tools are expected to be registered before the Registry is handed to an agent.
type Registry struct {
	lock     sync.RWMutex
	tools    *orderedmap.OrderedMap[string, ITool]
	timeout  time.Duration
	callback Callback
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:   orderedmap.New[string, ITool](),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds tools to the registry.
func (r *Registry) Register(list ...ITool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, tool := range list {
		if tool == nil {
			return errors.New("tool is nil")
		}
		name := tool.Name()
		if name == "" || strings.TrimSpace(name) != name {
			return errors.Newf("invalid tool name: %q", name)
		}
		if _, ok := r.tools.Get(name); ok {
			return errors.WithMessagef(ErrDuplicateTool, "tool %s", name)
		}
		r.tools.Set(name, tool)

		logger.KV(xlog.DEBUG,
			"status", "registered",
			"tool", name,
		)
	}
	return nil
}

// Timeout returns the per call timeout.
func (r *Registry) Timeout() time.Duration {
	return r.timeout
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.tools.Len()
}

// Has returns true if a tool with the name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Get returns the tool by name.
func (r *Registry) Get(name string) (ITool, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.tools.Get(name)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, r.tools.Len())
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Describe returns one "- {name}: {description}" line per tool,
// in registration order.
func (r *Registry) Describe() string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	lines := make([]string, 0, r.tools.Len())
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		lines = append(lines, fmt.Sprintf("- %s: %s", pair.Key, pair.Value.Description()))
	}
	return strings.Join(lines, "\n")
}

// Execute runs the named tool and always returns a string.
// Unknown tools yield "Unknown tool: {name}", failures yield "{Name} error: {err}".
func (r *Registry) Execute(ctx context.Context, name, input string) string {
	res, _ := r.Invoke(ctx, name, input, r.callback)
	return res
}

// Invoke runs the named tool with the callback.
// The returned string is the same as Execute returns,
// the error is the original failure, if any.
func (r *Registry) Invoke(ctx context.Context, name, input string, cb Callback) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", name,
			"available_tools", strings.Join(r.Names(), ","),
		)
		return UnknownToolResult(name), errors.Newf("unknown tool: %s", name)
	}

	if cb != nil {
		cb.OnToolStart(ctx, tool, input)
	}

	started := time.Now()
	res, err := r.call(ctx, tool, input)
	metricskey.PerfToolCall.MeasureSince(started, name)

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_failed",
			"tool", name,
			"input", slices.StringUpto(input, 64),
			"err", err.Error(),
		)
		if cb != nil {
			cb.OnToolError(ctx, tool, input, err)
		}
		return ErrorResult(name, err), err
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	if cb != nil {
		cb.OnToolEnd(ctx, tool, input, res)
	}
	return res, nil
}

func (r *Registry) call(ctx context.Context, tool ITool, input string) (res string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "tool_panic",
				"tool", tool.Name(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			err = errors.Newf("panic: %v", rec)
		}
	}()

	res, err = tool.Call(ctx, input)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		err = errors.WithMessagef(err, "timeout after %s", r.timeout)
	}
	return res, err
}

// UnknownToolResult returns the result string for a tool that is not registered.
func UnknownToolResult(name string) string {
	return "Unknown tool: " + name
}

// ErrorResult returns the result string for a failed tool call,
// for example "Search error: connection refused" for the search tool.
func ErrorResult(name string, err error) string {
	title := name
	if r, size := utf8.DecodeRuneInString(title); r != utf8.RuneError {
		title = string(unicode.ToUpper(r)) + title[size:]
	}
	return fmt.Sprintf("%s error: %s", title, err.Error())
}
