package agent

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
)

// DefaultSystemPrompt is the template of the system message.
// The template has access to .Name, .Tools (the registry description)
// and .ToolNames, and to the sprig functions.
const DefaultSystemPrompt = `You are a helpful AI assistant. You have access to the following tools:

{{ .Tools }}

When you need to use a tool, respond with exactly this format:
<action>tool_name</action>
<input>tool_input</input>

After receiving the tool result, provide your final response to the user.

If you don't need a tool, just respond directly to the user.
`

// PromptData is the data passed to the system prompt template.
type PromptData struct {
	Name      string
	Tools     string
	ToolNames []string
}

// ParsePrompt parses the system prompt template.
func ParsePrompt(text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.WithMessage(ErrInvalidPrompt, "empty template")
	}
	tpl, err := template.New("system").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, errors.WithMessage(ErrInvalidPrompt, err.Error())
	}
	return tpl, nil
}

func renderPrompt(tpl *template.Template, data PromptData) (string, error) {
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", errors.Wrap(err, "failed to render system prompt")
	}
	return b.String(), nil
}
