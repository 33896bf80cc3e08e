package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
	"github.com/lorinsinzig/lisa-chat/backend/internal/store"
)

func setupRouter() (*chi.Mux, *store.MemoryStore) {
	s := store.NewMemoryStore()
	handler := New(s)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, s
}

func TestCreateChat(t *testing.T) {
	r, _ := setupRouter()
	payload, _ := json.Marshal(map[string]string{"name": "groceries"})

	req := httptest.NewRequest(http.MethodPost, "/createChat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var created chatmodel.Chat
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.Name != "groceries" {
		t.Fatalf("unexpected chat: %+v", created)
	}
}

func TestCreateChatMissingName(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/createChat", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetChatsOrdered(t *testing.T) {
	r, s := setupRouter()
	ctx := context.Background()

	first, _ := s.CreateChat(ctx, "first")
	second, _ := s.CreateChat(ctx, "second")

	req := httptest.NewRequest(http.MethodGet, "/getChats", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var chats []chatmodel.Chat
	if err := json.NewDecoder(resp.Body).Decode(&chats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != first.ID || chats[1].ID != second.ID {
		t.Fatalf("unexpected chat list: %+v", chats)
	}
}

func TestGetConversation(t *testing.T) {
	r, s := setupRouter()
	ctx := context.Background()

	c, _ := s.CreateChat(ctx, "talk")
	s.AppendMessage(ctx, c.ID, chatmodel.RoleUser, "Hi")
	s.AppendMessage(ctx, c.ID, chatmodel.RoleAssistant, "Hello!")

	req := httptest.NewRequest(http.MethodGet, "/getConversation/"+c.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var messages []chatmodel.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(messages) != 2 || messages[0].Content != "Hi" || messages[1].Content != "Hello!" {
		t.Fatalf("unexpected conversation: %+v", messages)
	}
}

func TestGetConversationUnknownChat(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/getConversation/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDeleteChat(t *testing.T) {
	r, s := setupRouter()
	ctx := context.Background()

	c, _ := s.CreateChat(ctx, "doomed")
	s.AppendMessage(ctx, c.ID, chatmodel.RoleUser, "Hi")

	req := httptest.NewRequest(http.MethodDelete, "/deleteChat/"+c.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result struct {
		DeletedMessages int `json:"deletedMessages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.DeletedMessages != 1 {
		t.Fatalf("expected 1 deleted message, got %d", result.DeletedMessages)
	}

	if _, err := s.ListMessages(ctx, c.ID); err == nil {
		t.Fatal("expected chat to be gone")
	}
}

func TestDeleteChatNotFound(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodDelete, "/deleteChat/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
