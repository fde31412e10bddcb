// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"postforge/internal/middleware"
	"postforge/internal/models"
	"postforge/internal/session"
)

// Users looks up accounts and verifies passwords.
type Users interface {
	FindByEmail(email string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// Sessions creates and destroys login sessions.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	RevokeUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Auth groups the authentication handlers.
type Auth struct {
	sessions Sessions
	users    Users
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions Sessions, users Users) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Login checks the credentials and starts a session cookie.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := a.users.FindByEmail(email)
	if err != nil {
		writeInternal(w, "login lookup", err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		writeInternal(w, "session create", err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, toMe(data))
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll ends every session of the logged-in user, on all devices.
func (a *Auth) LogoutAll(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	n, err := a.sessions.RevokeUser(r.Context(), sess.UserID)
	if err != nil {
		writeInternal(w, "revoke sessions", err)
		return
	}
	slog.Info("user sessions revoked", "user_id", sess.UserID, "sessions", n)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, toMe(sess))
}

func toMe(d *session.Data) meResponse {
	return meResponse{
		UserID:      d.UserID.String(),
		Email:       d.Email,
		DisplayName: d.DisplayName,
		Role:        d.Role,
	}
}
