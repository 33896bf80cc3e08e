package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages (chat_id, created_at);
`

// PostgresStore persists chats and messages in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database, ensures the schema exists and
// returns a ready store.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(connectCtx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CreateChat provisions a new named chat.
func (s *PostgresStore) CreateChat(ctx context.Context, name string) (chat.Chat, error) {
	if name == "" {
		return chat.Chat{}, ErrNameRequired
	}

	c := chat.Chat{ID: uuid.NewString(), Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chats (id, name) VALUES ($1, $2) RETURNING created_at`,
		c.ID, c.Name,
	).Scan(&c.CreatedAt)
	if err != nil {
		return chat.Chat{}, fmt.Errorf("failed to create chat: %w", err)
	}
	return c, nil
}

// ListChats returns all chats ordered by creation time, oldest first.
func (s *PostgresStore) ListChats(ctx context.Context) ([]chat.Chat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at FROM chats ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]chat.Chat, 0, 8)
	for rows.Next() {
		var c chat.Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// ListMessages returns the stored messages for a chat, oldest first.
func (s *PostgresStore) ListMessages(ctx context.Context, chatID string) ([]chat.Message, error) {
	if err := s.chatExists(ctx, chatID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, role, content, created_at
		 FROM messages WHERE chat_id = $1 ORDER BY created_at ASC, id ASC`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, 16)
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage appends a message to the chat history.
func (s *PostgresStore) AppendMessage(ctx context.Context, chatID, role, content string) (chat.Message, error) {
	m := chat.Message{ID: uuid.NewString(), ChatID: chatID, Role: role, Content: content}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (id, chat_id, role, content) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		m.ID, m.ChatID, m.Role, m.Content,
	).Scan(&m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return chat.Message{}, ErrChatNotFound
		}
		return chat.Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	return m, nil
}

// DeleteChat removes the chat and its messages, reporting the message count.
func (s *PostgresStore) DeleteChat(ctx context.Context, chatID string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	removed := int(tag.RowsAffected())

	chatTag, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chat: %w", err)
	}
	if chatTag.RowsAffected() == 0 {
		return 0, ErrChatNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return removed, nil
}

func (s *PostgresStore) chatExists(ctx context.Context, chatID string) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM chats WHERE id = $1`, chatID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrChatNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up chat: %w", err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
