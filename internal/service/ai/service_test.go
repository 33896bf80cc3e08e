package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
	"github.com/lorinsinzig/lisa-chat/backend/internal/ollama"
)

func fakeBackend(t *testing.T, deltas []string, capture *[]ollama.Message) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []ollama.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if capture != nil {
			*capture = req.Messages
		}

		for _, delta := range deltas {
			line, _ := json.Marshal(map[string]any{
				"message": map[string]string{"role": "assistant", "content": delta},
				"done":    false,
			})
			w.Write(append(line, '\n'))
		}
		w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
}

func TestStreamReplyEmitsDeltasInOrder(t *testing.T) {
	srv := fakeBackend(t, []string{"Hel", "lo!"}, nil)
	defer srv.Close()

	svc := NewService(ollama.NewClient(ollama.Config{BaseURL: srv.URL, Model: "llama3.1"}), time.Minute)
	reader, err := svc.StreamReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "Hi"}})
	if err != nil {
		t.Fatalf("StreamReply err: %v", err)
	}
	defer reader.Close()

	var got []string
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv err: %v", err)
		}
		got = append(got, msg.Content)
	}

	if len(got) != 2 || got[0] != "Hel" || got[1] != "lo!" {
		t.Fatalf("unexpected deltas: %v", got)
	}
}

func TestStreamReplyPrependsSystemTurn(t *testing.T) {
	var sent []ollama.Message
	srv := fakeBackend(t, nil, &sent)
	defer srv.Close()

	svc := NewService(ollama.NewClient(ollama.Config{BaseURL: srv.URL, Model: "llama3.1"}), time.Minute)
	reader, err := svc.StreamReply(context.Background(), []chat.Turn{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleAssistant, Content: "second"},
		{Role: chat.RoleUser, Content: "third"},
	})
	if err != nil {
		t.Fatalf("StreamReply err: %v", err)
	}
	defer reader.Close()
	for {
		if _, err := reader.Recv(); err != nil {
			break
		}
	}

	if len(sent) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(sent))
	}
	if sent[0].Role != chat.RoleSystem {
		t.Fatalf("expected leading system turn, got role %s", sent[0].Role)
	}
	if sent[1].Content != "first" || sent[2].Content != "second" || sent[3].Content != "third" {
		t.Fatalf("history reordered: %+v", sent[1:])
	}
}

func TestStreamReplyEmptyHistory(t *testing.T) {
	svc := NewService(ollama.NewClient(ollama.Config{BaseURL: "http://127.0.0.1:0", Model: "llama3.1"}), time.Minute)

	if _, err := svc.StreamReply(context.Background(), nil); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestStreamReplyBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	svc := NewService(ollama.NewClient(ollama.Config{BaseURL: srv.URL, Model: "llama3.1"}), time.Minute)
	if _, err := svc.StreamReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "Hi"}}); !errors.Is(err, ollama.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
