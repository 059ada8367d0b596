package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/edgeagent/agent"
	"github.com/effective-security/edgeagent/chatmodel"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llmutils"
	"github.com/effective-security/edgeagent/tools"
)

var _ agent.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

type RunStats struct {
	ChatID string
	RunID  string

	Outcome             string
	Duration            time.Duration
	Iterations          uint32
	TotalMessages       uint32
	LLMBytesOut         uint64
	LLMBytesIn          uint64
	GenerationsFailed   uint32
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
	ToolNotFound        uint32
}

// Scratchpad collects the trace and the stats of agent runs.
// The run is identified by the chat context set by the agent.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex

	// OnEnd is called with the stats and the trace of each completed run.
	OnEnd func(stats *RunStats, trace []byte)
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	l.lock.Lock()
	defer l.lock.Unlock()

	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return nil
	}

	return l.runs[chatCtx.RunID()]
}

func (l *Scratchpad) OnRunStart(ctx context.Context, a agent.IAgent, input string) {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return
	}

	r := &run{
		stats: RunStats{
			ChatID: chatCtx.GetChatID(),
			RunID:  chatCtx.RunID(),
		},
		chatCtx: chatCtx,
		started: TimeNowFn(),
	}

	l.lock.Lock()
	l.runs[chatCtx.RunID()] = r
	l.lock.Unlock()

	r.print(a.Name(), "*** Run Started ***")
	r.print(a.Name(), "Input:", input)
}

func (l *Scratchpad) OnRunEnd(ctx context.Context, a agent.IAgent, input string, res *agent.Result) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}

	stats := r.stats
	stats.Duration = TimeNowFn().Sub(r.started)
	stats.Outcome = res.Outcome.String()

	if res.Err != nil {
		r.print(a.Name(), "*** Error ***", res.Err.Error())
	}
	r.print(fmt.Sprintf("Generations: %d, Failed: %d, Messages: %d, Bytes Out: %d, Bytes In: %d",
		stats.Iterations,
		stats.GenerationsFailed,
		stats.TotalMessages,
		stats.LLMBytesOut,
		stats.LLMBytesIn,
	))
	r.print(fmt.Sprintf("Tool calls: %d, Failed: %d, Not Found: %d",
		stats.ToolsCalls,
		stats.ToolsCallsFailed,
		stats.ToolNotFound,
	))
	r.print(fmt.Sprintf("*** Run Ended: %s. Duration: %s ***", stats.Outcome, stats.Duration))

	l.lock.Lock()
	delete(l.runs, r.chatCtx.RunID())
	l.lock.Unlock()

	if l.OnEnd != nil {
		l.OnEnd(&stats, r.bytes())
	}
}

func (l *Scratchpad) OnGenerationStart(ctx context.Context, a agent.IAgent, messages []llms.Message) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}

	atomic.AddUint64(&r.stats.LLMBytesOut, llmutils.CountMessagesContentSize(messages))
	atomic.AddUint32(&r.stats.Iterations, 1)
	count := uint32(len(messages))
	atomic.AddUint32(&r.stats.TotalMessages, count)

	r.print(a.Name(), "*** Generation ***", fmt.Sprintf("%d messages", count))
	if l.mode == ModeVerbose {
		var buf bytes.Buffer
		llmutils.PrintMessages(&buf, messages)
		r.print(buf.String())
	}
}

func (l *Scratchpad) OnGenerationEnd(ctx context.Context, a agent.IAgent, completion string, err error) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	if err != nil {
		atomic.AddUint32(&r.stats.GenerationsFailed, 1)
		r.print(a.Name(), "*** Generation Error ***", err.Error())
		return
	}

	atomic.AddUint64(&r.stats.LLMBytesIn, uint64(len(completion)))
	if l.mode == ModeVerbose {
		r.print(a.Name(), "Completion:", completion)
	}
	r.print(a.Name(), "*** Generation End ***")
}

func (l *Scratchpad) OnToolNotFound(ctx context.Context, a agent.IAgent, call agent.ToolCall) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolNotFound, 1)
	r.print(a.Name(), "*** Tool Not Found ***", call.Name)
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCalls, 1)
	r.print(tool.Name(), "*** Tool Start ***")
	r.print(tool.Name(), "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		r.print(tool.Name(), "Output:", output)
	}
	r.print(tool.Name(), "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCallsFailed, 1)
	r.print(tool.Name(), "*** Tool Error ***", err.Error())
}

type run struct {
	chatCtx chatmodel.ChatContext
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

func (r *run) bytes() []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return bytes.Clone(r.w.Bytes())
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// [timestamp chatID.runID] entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := TimeNowFn()
	ts := now.Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.chatCtx.GetChatID())
	_, _ = r.w.WriteString(".")
	_, _ = r.w.WriteString(r.chatCtx.RunID())
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
