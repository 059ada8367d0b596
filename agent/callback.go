package agent

import (
	"context"

	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/tools"
)

//go:generate mockgen -source=callback.go -destination=../mocks/mockagent/agent_mock.gen.go -package mockagent

// IAgent is the agent as seen by callbacks.
type IAgent interface {
	// Name returns the name of the agent.
	Name() string
	// ChatID returns the chat ID of the history.
	ChatID() string
}

// Callback receives the agent and tool events.
type Callback interface {
	tools.Callback
	OnRunStart(ctx context.Context, agent IAgent, input string)
	OnRunEnd(ctx context.Context, agent IAgent, input string, res *Result)
	OnGenerationStart(ctx context.Context, agent IAgent, messages []llms.Message)
	OnGenerationEnd(ctx context.Context, agent IAgent, completion string, err error)
	OnToolNotFound(ctx context.Context, agent IAgent, call ToolCall)
}
