package handler

import (
	"net/http"
	"strings"

	"github.com/pavelanni/testprep/internal/chatbot"
)

const maxChatMessage = 2000

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		httpError(w, "message is required", http.StatusBadRequest)
		return
	}
	if len(msg) > maxChatMessage {
		httpError(w, "message is too long", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.bot.Respond(r.Context(), msg))
}

// handleChatGreeting returns the opening message shown when the chat opens.
func (h *Handler) handleChatGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chatbot.Reply{Text: chatbot.Greeting, Source: chatbot.SourceGreeting})
}
