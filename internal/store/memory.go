package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
)

var ErrNameRequired = errors.New("chat name is required")

// MemoryStore keeps chats and messages in process memory. It backs the
// service when no database is configured and doubles as the test store.
type MemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]chat.Chat
	messages map[string][]chat.Message
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]chat.Chat),
		messages: make(map[string][]chat.Message),
	}
}

// CreateChat provisions a new named chat.
func (s *MemoryStore) CreateChat(_ context.Context, name string) (chat.Chat, error) {
	if name == "" {
		return chat.Chat{}, ErrNameRequired
	}

	c := chat.Chat{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.chats[c.ID] = c
	s.messages[c.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return c, nil
}

// ListChats returns all chats ordered by creation time, oldest first.
func (s *MemoryStore) ListChats(_ context.Context) ([]chat.Chat, error) {
	s.mu.RLock()
	chats := make([]chat.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		chats = append(chats, c)
	}
	s.mu.RUnlock()

	sort.Slice(chats, func(i, j int) bool {
		if chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].CreatedAt.Before(chats[j].CreatedAt)
	})
	return chats, nil
}

// ListMessages returns the stored messages for a chat, oldest first.
func (s *MemoryStore) ListMessages(_ context.Context, chatID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// AppendMessage appends a message to the chat history.
func (s *MemoryStore) AppendMessage(_ context.Context, chatID, role, content string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return chat.Message{}, ErrChatNotFound
	}

	m := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.messages[chatID] = append(s.messages[chatID], m)
	return m, nil
}

// DeleteChat removes the chat and its messages, reporting the message count.
func (s *MemoryStore) DeleteChat(_ context.Context, chatID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return 0, ErrChatNotFound
	}

	removed := len(s.messages[chatID])
	delete(s.chats, chatID)
	delete(s.messages, chatID)
	return removed, nil
}
