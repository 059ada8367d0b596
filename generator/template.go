package generator

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/nikolalohinski/gonja"
)

// Built-in chat template names.
const (
	TemplateZephyr = "zephyr"
	TemplateChatML = "chatml"
	TemplateLlama3 = "llama3"
	TemplateJinja  = "jinja"
)

// ChatTemplate maps a transcript to one prompt string,
// ending with the cue for the assistant turn.
type ChatTemplate interface {
	Name() string
	Format(messages []llms.Message) (string, error)
	// StopWords returns the end of turn markers.
	StopWords() []string
}

// roleTemplate renders each message as prefix+content+suffix.
type roleTemplate struct {
	name       string
	bos        string
	prefix     map[llms.Role]string
	suffix     string
	generation string
	stop       []string
}

func (t *roleTemplate) Name() string {
	return t.name
}

func (t *roleTemplate) StopWords() []string {
	return t.stop
}

func (t *roleTemplate) Format(messages []llms.Message) (string, error) {
	var buf strings.Builder
	buf.WriteString(t.bos)
	for _, m := range messages {
		prefix, ok := t.prefix[m.Role]
		if !ok {
			return "", errors.WithMessagef(llms.ErrUnexpectedRole, "role %q", m.Role)
		}
		buf.WriteString(prefix)
		buf.WriteString(m.Content)
		buf.WriteString(t.suffix)
	}
	buf.WriteString(t.generation)
	return buf.String(), nil
}

// Zephyr is the template used by Zephyr and TinyLlama chat models.
var Zephyr ChatTemplate = &roleTemplate{
	name: TemplateZephyr,
	prefix: map[llms.Role]string{
		llms.RoleSystem:    "<|system|>\n",
		llms.RoleUser:      "<|user|>\n",
		llms.RoleAssistant: "<|assistant|>\n",
	},
	suffix:     "</s>\n",
	generation: "<|assistant|>\n",
	stop:       []string{"</s>"},
}

// ChatML is the template used by Qwen, Hermes and other ChatML models.
var ChatML ChatTemplate = &roleTemplate{
	name: TemplateChatML,
	prefix: map[llms.Role]string{
		llms.RoleSystem:    "<|im_start|>system\n",
		llms.RoleUser:      "<|im_start|>user\n",
		llms.RoleAssistant: "<|im_start|>assistant\n",
	},
	suffix:     "<|im_end|>\n",
	generation: "<|im_start|>assistant\n",
	stop:       []string{"<|im_end|>"},
}

// Llama3 is the Llama 3 instruct template.
var Llama3 ChatTemplate = &roleTemplate{
	name: TemplateLlama3,
	bos:  "<|begin_of_text|>",
	prefix: map[llms.Role]string{
		llms.RoleSystem:    "<|start_header_id|>system<|end_header_id|>\n\n",
		llms.RoleUser:      "<|start_header_id|>user<|end_header_id|>\n\n",
		llms.RoleAssistant: "<|start_header_id|>assistant<|end_header_id|>\n\n",
	},
	suffix:     "<|eot_id|>",
	generation: "<|start_header_id|>assistant<|end_header_id|>\n\n",
	stop:       []string{"<|eot_id|>"},
}

// TemplateByName returns a built-in template.
func TemplateByName(name string) (ChatTemplate, error) {
	switch strings.ToLower(name) {
	case "", TemplateZephyr, "tinyllama":
		return Zephyr, nil
	case TemplateChatML:
		return ChatML, nil
	case TemplateLlama3:
		return Llama3, nil
	}
	return nil, errors.Errorf("unsupported chat template: %s", name)
}

// JinjaTemplate renders a Hugging Face style Jinja2 chat template.
// The template receives `messages` (a list of {role, content}),
// `add_generation_prompt`, `bos_token` and `eos_token`.
type JinjaTemplate struct {
	render func(map[string]any) (string, error)
	bos    string
	eos    string
	stop   []string
}

// NewJinjaTemplate parses the template source.
func NewJinjaTemplate(source, bosToken, eosToken string, stopWords ...string) (*JinjaTemplate, error) {
	tpl, err := gonja.FromString(source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse chat template")
	}
	if len(stopWords) == 0 && eosToken != "" {
		stopWords = []string{eosToken}
	}
	return &JinjaTemplate{
		render: func(values map[string]any) (string, error) {
			return tpl.Execute(values)
		},
		bos:  bosToken,
		eos:  eosToken,
		stop: stopWords,
	}, nil
}

func (t *JinjaTemplate) Name() string {
	return TemplateJinja
}

func (t *JinjaTemplate) StopWords() []string {
	return t.stop
}

func (t *JinjaTemplate) Format(messages []llms.Message) (string, error) {
	list := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		list = append(list, map[string]any{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}

	out, err := t.render(map[string]any{
		"messages":              list,
		"add_generation_prompt": true,
		"bos_token":             t.bos,
		"eos_token":             t.eos,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render chat template")
	}
	return out, nil
}
