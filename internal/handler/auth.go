package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/testprep/internal/model"
	"github.com/pavelanni/testprep/internal/store"
)

const (
	tokenIssuer       = "testprep"
	minPasswordLength = 8
)

var errUnauthorized = errors.New("unauthorized")

// claims is the JWT payload. The registered ID is the token record key, so a
// token stops working as soon as its record is deleted.
type claims struct {
	Role model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (h *Handler) issueToken(user *model.User) (tokenResponse, error) {
	sess, err := h.store.CreateAuthSession(user.ID, h.config.TokenTTL)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("create token record: %w", err)
	}
	c := &claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(h.config.JWTSecret)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenResponse{Token: signed, ExpiresAt: sess.ExpiresAt, User: user}, nil
}

func (h *Handler) parseToken(raw string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		return h.config.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// authenticate resolves the bearer token on r to an active user. It returns
// errUnauthorized for any missing, invalid, revoked or expired token.
func (h *Handler) authenticate(r *http.Request) (*model.User, string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, "", errUnauthorized
	}
	c, err := h.parseToken(raw)
	if err != nil {
		slog.Debug("rejected token", "error", err)
		return nil, "", errUnauthorized
	}

	sess, err := h.store.GetAuthSession(c.ID)
	if err != nil {
		return nil, "", err
	}
	if sess == nil {
		return nil, "", errUnauthorized
	}

	user, err := h.store.GetUserByID(sess.UserID)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.Active {
		return nil, "", errUnauthorized
	}
	return user, sess.ID, nil
}

// requireAuth is middleware that checks for a valid bearer token.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, tokenID, err := h.authenticate(r)
		if errors.Is(err, errUnauthorized) {
			httpError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := model.ContextWithUser(r.Context(), user)
		ctx = model.ContextWithTokenID(ctx, tokenID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				httpError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpError(w, "forbidden", http.StatusForbidden)
		})
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByUsername(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !user.Active {
		httpError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httpError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	resp, err := h.issueToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := store.NormalizeUsername(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		httpError(w, "a valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		httpError(w, fmt.Sprintf("password must be at least %d characters", minPasswordLength), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = email
	}

	existing, err := h.store.GetUserByUsername(email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		httpError(w, "an account with this email already exists", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, fmt.Errorf("hash password: %w", err))
		return
	}
	id, err := h.store.CreateUser(model.User{
		Username:     email,
		DisplayName:  name,
		PasswordHash: string(hash),
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.issueToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAuthSession(model.TokenIDFromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
