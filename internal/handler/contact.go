package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	appI18n "github.com/pavelanni/testprep/internal/i18n"
	"github.com/pavelanni/testprep/internal/model"
)

const maxContactMessage = 5000

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	m := model.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	switch {
	case m.Name == "":
		httpError(w, "name is required", http.StatusBadRequest)
		return
	case m.Message == "":
		httpError(w, "message is required", http.StatusBadRequest)
		return
	case utf8.RuneCountInString(m.Message) > maxContactMessage:
		httpError(w, "message is too long", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		httpError(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	id, err := h.store.CreateContactMessage(m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("contact message received", "id", id, "subject", m.Subject)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": appI18n.T(r.Context(), "ContactThanks"),
	})
}

func (h *Handler) handleListContactMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.store.ListContactMessages()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []model.ContactMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}
