package store

import (
	"github.com/effective-security/edgeagent/pkg/llms"
)

// MessageStore keeps the conversation history by chat ID.
type MessageStore interface {
	// Messages returns a copy of the history of the chat.
	Messages(chatID string) []llms.Message
	// Add appends the messages to the history of the chat, all or none.
	Add(chatID string, msgs ...llms.Message) error
	// Reset removes the history of the chat.
	Reset(chatID string) error
	// Chats returns the IDs of chats with history.
	Chats() []string
}
