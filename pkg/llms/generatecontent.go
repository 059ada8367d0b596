package llms

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnexpectedRole is returned when a message role is of an unexpected type.
	ErrUnexpectedRole = errors.New("unexpected role")
	// ErrEmptyResponse is returned when a provider returns no choices.
	ErrEmptyResponse = errors.New("empty response from LLM")
)

// Role is the type of chat message.
type Role string

const (
	// RoleSystem is a message with instructions for the model.
	RoleSystem Role = "system"
	// RoleUser is a message sent by the user, or a tool result fed back to the model.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the model.
	RoleAssistant Role = "assistant"
)

// IsValid returns true for the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a conversation transcript.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// NewMessage returns a Message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// SystemMessage returns a system Message.
func SystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// UserMessage returns a user Message.
func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// AssistantMessage returns an assistant Message.
func AssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// GetContent returns the message content.
func (m Message) GetContent() string {
	return m.Content
}

func (m Message) String() string {
	return string(m.Role) + ": " + m.Content
}

// ContentResponse is the response returned by a GenerateContent call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by GenerateContent
// calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	GenerationInfo map[string]any `json:"generation_info"`
}

// Text returns the content of the first non-empty choice.
func (r *ContentResponse) Text() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", errors.WithStack(ErrEmptyResponse)
	}
	for _, c := range r.Choices {
		if c != nil && c.Content != "" {
			return c.Content, nil
		}
	}
	return "", nil
}

// NewTextResponse returns a ContentResponse with a single choice.
func NewTextResponse(content, stopReason string, info map[string]any) *ContentResponse {
	return &ContentResponse{
		Choices: []*ContentChoice{
			{
				Content:        content,
				StopReason:     stopReason,
				GenerationInfo: info,
			},
		},
	}
}

// JoinContent concatenates the content of messages, one message per line.
func JoinContent(msgs []Message) string {
	var buf strings.Builder
	for i, m := range msgs {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(m.Content)
	}
	return buf.String()
}
