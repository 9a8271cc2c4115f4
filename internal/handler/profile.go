package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pavelanni/testprep/internal/model"
)

// loadDoc decodes the user's stored document key into v. It reports whether
// anything was stored; v is left untouched otherwise.
func (h *Handler) loadDoc(userID int64, key string, v any) (bool, error) {
	raw, ok, err := h.store.GetValue(userID, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s for user %d: %w", key, userID, err)
	}
	return true, nil
}

func (h *Handler) saveDoc(userID int64, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return h.store.SetValue(userID, key, string(data))
}

func (h *Handler) currentProfile(user *model.User) (model.Profile, error) {
	p := model.Profile{Name: user.DisplayName, Email: user.Username}
	_, err := h.loadDoc(user.ID, model.KeyProfile, &p)
	return p, err
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.currentProfile(model.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	p, err := h.currentProfile(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !decodeJSON(w, r, &p) {
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		httpError(w, "name is required", http.StatusBadRequest)
		return
	}
	// The login email is fixed; the profile only mirrors it.
	p.Email = user.Username

	if err := h.saveDoc(user.ID, model.KeyProfile, p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Name != user.DisplayName {
		if err := h.store.UpdateDisplayName(user.ID, p.Name); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if err := h.store.RemoveValue(user.ID, model.KeyProfile); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) currentSettings(userID int64) (model.Settings, error) {
	s := model.DefaultSettings()
	_, err := h.loadDoc(userID, model.KeySettings, &s)
	return s, err
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.currentSettings(model.UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handlePutSettings applies a partial update on top of the stored settings.
func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	s, err := h.currentSettings(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !decodeJSON(w, r, &s) {
		return
	}
	if s.FontSize < 10 || s.FontSize > 32 {
		httpError(w, "fontSize must be between 10 and 32", http.StatusBadRequest)
		return
	}
	if err := h.saveDoc(user.ID, model.KeySettings, s); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if err := h.store.RemoveValue(user.ID, model.KeySettings); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
