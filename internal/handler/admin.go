package handler

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/testprep/internal/bank"
	"github.com/pavelanni/testprep/internal/model"
)

const maxUploadBytes = 10 << 20

func (h *Handler) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.store.ListBanks()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if banks == nil {
		banks = []model.BankRecord{}
	}
	writeJSON(w, http.StatusOK, banks)
}

// readUpload returns the uploaded bank bytes, its file name and format. It
// accepts a multipart form with a "file" field, or a raw JSON/YAML body
// named by the "name" query parameter.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bank.Format, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", "", errors.New("file too large")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", "", errors.New("no file uploaded")
		}
		defer file.Close()
		format, err := bank.FormatFromPath(header.Filename)
		if err != nil {
			return nil, "", "", err
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", "", errors.New("failed to read file")
		}
		return data, header.Filename, format, nil
	}

	format := bank.FormatJSON
	if strings.Contains(mediaType, "yaml") {
		format = bank.FormatYAML
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload." + string(format)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", "", errors.New("failed to read body")
	}
	return data, name, format, nil
}

func (h *Handler) handleUploadBank(w http.ResponseWriter, r *http.Request) {
	data, filename, format, err := readUpload(w, r)
	if err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash := bank.Hash(data)
	storedHash, err := h.store.GetImportedFileHash(filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if storedHash == hash {
		httpError(w, "this file has already been imported", http.StatusConflict)
		return
	}

	f, err := bank.Parse(data, format)
	if err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.Name == "" {
		f.Name = bank.NameFromPath(filename)
	}
	b, err := f.Bank()
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.store.InsertBank(f.Name, filename, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetImportedFileHash(filename, hash); err != nil {
		slog.Error("failed to record import", "error", err)
	}

	slog.Info("uploaded bank via admin", "filename", filename, "bank_id", id, "count", b.Len())
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":             id,
		"name":           f.Name,
		"question_count": b.Len(),
	})
}

func validTestStatus(s model.TestStatus) bool {
	return s == model.TestAvailable || s == model.TestUpcoming
}

func (h *Handler) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title           string           `json:"title"`
		Subject         string           `json:"subject"`
		DurationMinutes int              `json:"duration_minutes"`
		MaxMarks        int              `json:"max_marks"`
		AvailableOn     string           `json:"available_on"`
		Status          model.TestStatus `json:"status"`
		BankID          int64            `json:"bank_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httpError(w, "title is required", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = model.TestAvailable
	}
	if !validTestStatus(req.Status) {
		httpError(w, "status must be available or upcoming", http.StatusBadRequest)
		return
	}
	if req.AvailableOn != "" {
		if _, err := time.Parse(time.DateOnly, req.AvailableOn); err != nil {
			httpError(w, "available_on must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if req.MaxMarks == 0 {
		req.MaxMarks = 100
	}

	if _, err := h.store.GetBank(req.BankID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpError(w, "bank not found", http.StatusBadRequest)
			return
		}
		writeError(w, r, err)
		return
	}

	id, err := h.store.CreateTest(model.TestInfo{
		Title:           strings.TrimSpace(req.Title),
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
		MaxMarks:        req.MaxMarks,
		AvailableOn:     req.AvailableOn,
		Status:          req.Status,
		BankID:          req.BankID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	test, err := h.store.GetTest(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("created test", "test_id", id, "bank_id", req.BankID)
	writeJSON(w, http.StatusCreated, test)
}

func (h *Handler) handleUpdateTest(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "testID")
	if !ok {
		return
	}
	var req struct {
		Status model.TestStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validTestStatus(req.Status) {
		httpError(w, "status must be available or upcoming", http.StatusBadRequest)
		return
	}
	if _, err := h.store.GetTest(id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateTestStatus(id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	test, err := h.store.GetTest(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "userID")
	if !ok {
		return
	}
	if admin := model.UserFromContext(r.Context()); admin.ID == id {
		httpError(w, "cannot deactivate yourself", http.StatusBadRequest)
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		writeError(w, r, err)
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		httpError(w, "user not found", http.StatusNotFound)
		return
	}
	if !user.Active {
		if err := h.store.DeleteUserSessions(id); err != nil {
			slog.Error("failed to revoke tokens", "id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ExportAllAttempts()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ResultsExport{
		ExportedAt:  time.Now(),
		NumAttempts: len(results),
		Results:     results,
	})
}
