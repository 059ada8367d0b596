// Package tools defines the Tool interface and the Registry the agent dispatches to.
// A tool takes one string and returns one string. The Registry converts tool failures
// into readable error strings, so a failing tool never aborts an agent turn.
package tools
