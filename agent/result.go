package agent

import (
	"github.com/effective-security/edgeagent/pkg/llms"
)

// FallbackAnswer is returned when the model keeps calling tools
// until the iteration budget is exhausted.
const FallbackAnswer = "I couldn't complete the task in the allowed steps."

// ToolResultPrefix starts the message that returns a tool result to the model.
const ToolResultPrefix = "Tool result: "

// Outcome is how a run terminated.
type Outcome int

const (
	// OutcomeAnswer is a run terminated with an answer.
	OutcomeAnswer Outcome = iota
	// OutcomeFallback is a run that exhausted the iteration budget.
	OutcomeFallback
	// OutcomeError is a run that failed.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswer:
		return "answer"
	case OutcomeFallback:
		return "fallback"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Result of a run.
type Result struct {
	Outcome Outcome
	// Answer is the text returned by Run.
	Answer string
	// Iterations is the number of generations performed.
	Iterations int
	// ToolCalls are the executed tool calls, in order.
	ToolCalls []ToolCall
	// Transcript is the message list sent on the last generation.
	Transcript []llms.Message
	// Err is set for OutcomeError.
	Err error
}

func (r *Result) setError(err error) {
	r.Outcome = OutcomeError
	r.Err = err
	r.Answer = "Error: " + err.Error()
}
