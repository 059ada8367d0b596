package tools

import (
	"context"
)

//go:generate mockgen -source=tool.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool, used by the model to invoke it.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should be a single line.
	Description() string
	// Call executes the tool with the given input and returns the result.
	Call(context.Context, string) (string, error)
}

// Callback receives the tool lifecycle events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input string, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
}

// Func is an ITool backed by a function.
type Func struct {
	name        string
	description string
	fn          func(context.Context, string) (string, error)
}

var _ ITool = (*Func)(nil)

// NewFunc returns a tool that calls fn.
func NewFunc(name, description string, fn func(context.Context, string) (string, error)) *Func {
	return &Func{
		name:        name,
		description: description,
		fn:          fn,
	}
}

func (f *Func) Name() string {
	return f.name
}

func (f *Func) Description() string {
	return f.description
}

func (f *Func) Call(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}
