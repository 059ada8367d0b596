// Package agent provides the tool-using conversational loop.
//
// The Agent sends the transcript to a generator.Generator, looks for an
// inline tool call in the completion, executes the named tool from the
// tools.Registry and feeds the result back, until the model answers or the
// iteration budget is exhausted. Completed turns are kept in a store.MessageStore.
//
// Tool calls use two tags in the model output:
//
//	<action>weather</action>
//	<input>Tokyo</input>
package agent
