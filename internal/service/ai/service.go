// Package ai produces streamed assistant replies for a conversation by
// driving the local model backend.
package ai

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
	"github.com/lorinsinzig/lisa-chat/backend/internal/ollama"
)

// systemPrompt is the fixed system turn prepended to every request.
const systemPrompt = "You are a helpful assistant, called LISA. Always provide accurate and concise answers, but human."

var ErrEmptyHistory = errors.New("conversation history is empty")

// Service wraps the model backend behind a streaming reply interface.
type Service struct {
	client  *ollama.Client
	timeout time.Duration
}

// NewService creates the AI service. timeout bounds one full generation,
// connect included; zero disables the bound.
func NewService(client *ollama.Client, timeout time.Duration) *Service {
	return &Service{client: client, timeout: timeout}
}

// StreamReply starts a generation for the given history and returns the
// reply as a stream of assistant message chunks, one per backend delta, in
// emission order. The reader is single-use. A backend that cannot be
// reached or refuses the request surfaces ollama.ErrUnavailable before any
// chunk is produced.
func (s *Service) StreamReply(ctx context.Context, history []chat.Turn) (*schema.StreamReader[*schema.Message], error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	stream, err := s.client.ChatStream(ctx, buildMessages(history))
	if err != nil {
		cancel()
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer cancel()
		defer sw.Close()
		defer stream.Close()

		for {
			delta, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				sw.Send(nil, err)
				return
			}
			if closed := sw.Send(schema.AssistantMessage(delta, nil), nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

// buildMessages prepends the system turn and converts the client-supplied
// history into backend messages.
func buildMessages(history []chat.Turn) []ollama.Message {
	messages := make([]ollama.Message, 0, len(history)+1)
	messages = append(messages, ollama.Message{Role: chat.RoleSystem, Content: systemPrompt})

	for _, turn := range history {
		if !chat.ValidRole(turn.Role) {
			continue
		}
		messages = append(messages, ollama.Message{Role: turn.Role, Content: turn.Content})
	}

	return messages
}
