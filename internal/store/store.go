package store

import (
	"context"
	"errors"

	"github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
)

var ErrChatNotFound = errors.New("chat not found")

// Store persists chats and their messages. Implementations must keep
// per-chat message order stable: appends for one chat are never reordered.
type Store interface {
	CreateChat(ctx context.Context, name string) (chat.Chat, error)
	ListChats(ctx context.Context) ([]chat.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]chat.Message, error)
	AppendMessage(ctx context.Context, chatID, role, content string) (chat.Message, error)
	// DeleteChat removes the chat and all of its messages, reporting how
	// many messages were removed. Unknown chats yield ErrChatNotFound.
	DeleteChat(ctx context.Context, chatID string) (int, error)
}
