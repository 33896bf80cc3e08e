// Package stream relays model output onto the client connection as it is
// generated.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lorinsinzig/lisa-chat/backend/internal/model/chat"
	"github.com/lorinsinzig/lisa-chat/backend/internal/service/ai"
	"github.com/lorinsinzig/lisa-chat/backend/internal/store"
	"github.com/lorinsinzig/lisa-chat/backend/pkg/utils"
)

// Handler forwards producer deltas onto the open response and persists the
// completed exchange.
type Handler struct {
	aiSvc *ai.Service
	store store.Store
}

// New creates the stream handler.
func New(aiSvc *ai.Service, s store.Store) *Handler {
	return &Handler{aiSvc: aiSvc, store: s}
}

// RegisterRoutes mounts the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/continueConversation", h.handleContinueConversation)
}

type continueRequest struct {
	History []chat.Turn `json:"history"`
	ChatID  string      `json:"chatId"`
}

func (h *Handler) handleContinueConversation(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChatID == "" {
		utils.RespondError(w, http.StatusBadRequest, "chatId is required")
		return
	}
	if len(req.History) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "history is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	reader, err := h.aiSvc.StreamReply(r.Context(), req.History)
	if err != nil {
		log.Printf("[stream] failed to start generation for chat=%s: %v", req.ChatID, err)
		http.Error(w, "model backend unavailable", http.StatusBadGateway)
		return
	}
	defer reader.Close()

	// Headers are committed before the first delta; the body is the raw
	// concatenation of deltas with no framing.
	utils.SetupStreamHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var assistant strings.Builder
	for {
		msg, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			// Producer died mid-stream. The client sees a closed
			// connection; the incomplete turn is not persisted.
			log.Printf("[stream] generation aborted for chat=%s: %v", req.ChatID, recvErr)
			return
		}
		if msg == nil || msg.Content == "" {
			continue
		}

		assistant.WriteString(msg.Content)
		if _, writeErr := io.WriteString(w, msg.Content); writeErr != nil {
			// Peer closed mid-stream: stop draining the producer and skip
			// persistence for this exchange.
			log.Printf("[stream] client write failed for chat=%s: %v", req.ChatID, writeErr)
			return
		}
		flusher.Flush()
	}

	h.persistExchange(context.WithoutCancel(r.Context()), req, assistant.String())
	log.Printf("[stream] completed response for chat=%s, length=%d", req.ChatID, assistant.Len())
}

// persistExchange saves the latest user turn and the assistant reply after
// the stream has closed. Failures are logged only; the response is already
// delivered.
func (h *Handler) persistExchange(ctx context.Context, req continueRequest, assistant string) {
	if userTurn, ok := chat.LastUserTurn(req.History); ok {
		if _, err := h.store.AppendMessage(ctx, req.ChatID, chat.RoleUser, userTurn.Content); err != nil {
			log.Printf("[stream] failed to save user message for chat=%s: %v", req.ChatID, err)
		}
	}

	if assistant != "" {
		if _, err := h.store.AppendMessage(ctx, req.ChatID, chat.RoleAssistant, assistant); err != nil {
			log.Printf("[stream] failed to save assistant message for chat=%s: %v", req.ChatID, err)
		}
	}
}
