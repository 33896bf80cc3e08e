package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lorinsinzig/lisa-chat/backend/internal/store"
)

// Handler serves the chat CRUD endpoints.
type Handler struct {
	store store.Store
}

// New creates the chat handler.
func New(s store.Store) *Handler {
	return &Handler{store: s}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/createChat", h.handleCreateChat)
	r.Get("/getChats", h.handleGetChats)
	r.Get("/getConversation/{chatID}", h.handleGetConversation)
	r.Delete("/deleteChat/{chatID}", h.handleDeleteChat)
}

func (h *Handler) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c, err := h.store.CreateChat(r.Context(), payload.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.store.ListChats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}

	respondJSON(w, http.StatusOK, chats)
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	messages, err := h.store.ListMessages(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			respondError(w, http.StatusNotFound, "chat not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	removed, err := h.store.DeleteChat(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{"message": "Chat not found"})
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":         "Chat and associated messages deleted",
		"deletedMessages": removed,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
