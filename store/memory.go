package store

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]llms.Message
}

// NewMemoryStore returns a MessageStore that keeps the history in memory.
func NewMemoryStore() MessageStore {
	return &inMemory{}
}

func (m *inMemory) Messages(chatID string) []llms.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil
	}
	return slices.Clone(m.storage[chatID])
}

func (m *inMemory) Add(chatID string, msgs ...llms.Message) error {
	if chatID == "" {
		return errors.New("chat ID is required")
	}
	for _, msg := range msgs {
		if !msg.Role.IsValid() {
			return errors.WithMessagef(llms.ErrUnexpectedRole, "role %q", msg.Role)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]llms.Message)
	}
	m.storage[chatID] = append(m.storage[chatID], msgs...)
	return nil
}

func (m *inMemory) Reset(chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, chatID)
	}
	return nil
}

func (m *inMemory) Chats() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.storage))
	for id := range m.storage {
		list = append(list, id)
	}
	slices.Sort(list)
	return list
}
