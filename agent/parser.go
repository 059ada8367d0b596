package agent

import (
	"regexp"
	"strings"
)

var (
	actionRegex = regexp.MustCompile(`(?s)<action>(.*?)</action>`)
	inputRegex  = regexp.MustCompile(`(?s)<input>(.*?)</input>`)
	markupRegex = regexp.MustCompile(`(?s)<action>.*?</action>|<input>.*?</input>`)
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	Name  string `json:"name" yaml:"name"`
	Input string `json:"input" yaml:"input"`
}

func (c ToolCall) String() string {
	return c.Name + "(" + c.Input + ")"
}

// ParseToolCall extracts the first <action> and the first <input> values
// from the response. It returns false if either tag pair is missing.
// The values are trimmed, the tool name is not validated.
func ParseToolCall(response string) (ToolCall, bool) {
	action := actionRegex.FindStringSubmatch(response)
	if action == nil {
		return ToolCall{}, false
	}
	input := inputRegex.FindStringSubmatch(response)
	if input == nil {
		return ToolCall{}, false
	}
	return ToolCall{
		Name:  strings.TrimSpace(action[1]),
		Input: strings.TrimSpace(input[1]),
	}, true
}

// FormatToolCall returns the call in the format ParseToolCall accepts.
func FormatToolCall(call ToolCall) string {
	return "<action>" + call.Name + "</action>\n<input>" + call.Input + "</input>"
}

// StripToolMarkup removes the tool call tags with their content.
func StripToolMarkup(response string) string {
	return strings.TrimSpace(markupRegex.ReplaceAllString(response, ""))
}
