package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/attempts"
	"github.com/pavelanni/testprep/internal/chatbot"
	appI18n "github.com/pavelanni/testprep/internal/i18n"
	"github.com/pavelanni/testprep/internal/model"
	"github.com/pavelanni/testprep/internal/store"
)

const maxBodyBytes = 1 << 20

// Explainer walks a learner through a reviewed item.
type Explainer interface {
	Explain(ctx context.Context, item assessment.Item, chosen *int) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	registry  *attempts.Registry
	bot       *chatbot.Bot
	explainer Explainer
	config    model.ServerConfig
}

// New creates a new Handler. explainer may be nil when no LLM is configured.
func New(s *store.Store, reg *attempts.Registry, bot *chatbot.Bot, explainer Explainer, cfg model.ServerConfig) (*Handler, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("JWT secret is required")
	}
	return &Handler{store: s, registry: reg, bot: bot, explainer: explainer, config: cfg}, nil
}

// Routes registers all HTTP routes. Call it on a router with no routes yet.
func (h *Handler) Routes(r chi.Router) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appI18n.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/signup", h.handleSignup)
		r.Get("/chat", h.handleChatGreeting)
		r.Post("/chat", h.handleChat)
		r.Post("/contact", h.handleContact)
		r.Get("/courses", h.handleListCourses)
		r.Get("/tests", h.handleListTests)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/auth/logout", h.handleLogout)

			r.Post("/tests/{testID}/attempts", h.handleStartAttempt)
			r.Get("/attempts/{attemptID}", h.handleGetAttempt)
			r.Post("/attempts/{attemptID}/answer", h.handleAnswer)
			r.Delete("/attempts/{attemptID}/answer/{item}", h.handleClearAnswer)
			r.Post("/attempts/{attemptID}/navigate", h.handleNavigate)
			r.Post("/attempts/{attemptID}/submit", h.handleSubmit)
			r.Get("/attempts/{attemptID}/report", h.handleReport)
			r.Post("/attempts/{attemptID}/explain/{item}", h.handleExplain)

			r.Get("/materials", h.handleMaterials)
			r.Post("/materials/videos/{videoID}/watch", h.handleWatchVideo)
			r.Post("/materials/notes/{noteID}/download", h.handleDownloadNote)

			r.Get("/me/attempts", h.handleMyAttempts)
			r.Get("/me/profile", h.handleGetProfile)
			r.Put("/me/profile", h.handlePutProfile)
			r.Delete("/me/profile", h.handleDeleteProfile)
			r.Get("/me/settings", h.handleGetSettings)
			r.Put("/me/settings", h.handlePutSettings)
			r.Delete("/me/settings", h.handleDeleteSettings)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/banks", h.handleListBanks)
				r.Post("/banks", h.handleUploadBank)
				r.Post("/tests", h.handleCreateTest)
				r.Patch("/tests/{testID}", h.handleUpdateTest)
				r.Get("/users", h.handleListUsers)
				r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
				r.Get("/export", h.handleExport)
				r.Get("/contact", h.handleListContactMessages)
			})
		})
	})
}

// errTestUpcoming is returned when a learner starts a test that is not open yet.
var errTestUpcoming = errors.New("test is not available yet")

// errorMessages holds translated texts for errors learners commonly see.
var errorMessages = map[error]string{
	assessment.ErrAttemptAlreadySubmitted: "AlreadySubmitted",
	assessment.ErrIndexOutOfRange:         "OutOfRange",
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, assessment.ErrInvalidBank),
		errors.Is(err, assessment.ErrIndexOutOfRange),
		errors.Is(err, assessment.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, assessment.ErrAttemptAlreadySubmitted),
		errors.Is(err, assessment.ErrAttemptNotSubmitted),
		errors.Is(err, errTestUpcoming):
		return http.StatusConflict
	case errors.Is(err, attempts.ErrNotFound),
		errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code and writes it as a JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpError(w, "internal error", status)
		return
	}
	msg := err.Error()
	for sentinel, id := range errorMessages {
		if errors.Is(err, sentinel) {
			msg = appI18n.T(r.Context(), id)
			break
		}
	}
	httpError(w, msg, status)
}

func httpError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		httpError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
