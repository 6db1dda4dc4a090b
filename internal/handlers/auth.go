package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"clipforge/internal/database"
)

const sessionCookie = "clipforge_session"

type passwordRequest struct {
	Password string `json:"password"`
}

// CheckSetupRequired reports whether the editor password still needs to
// be set.
func (h *Handlers) CheckSetupRequired(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"setupRequired": !h.db.HasUsers()})
}

// Setup creates the single editor account. Only valid once.
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	if h.db.HasUsers() {
		http.Error(w, "Setup already completed", http.StatusConflict)
		return
	}
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	if err := h.db.CreateUser(req.Password); err != nil {
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	h.login(w, req.Password)
}

// Login validates the password and issues a session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.login(w, req.Password)
}

func (h *Handlers) login(w http.ResponseWriter, password string) {
	user, err := h.db.ValidatePassword(password)
	if errors.Is(err, database.ErrBadCredentials) {
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	session, err := h.db.CreateSession(user.ID)
	if err != nil {
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w)
}

// Logout invalidates the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		_ = h.db.DeleteSession(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    sessionCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
	writeOK(w)
}

// CheckAuth reports whether the request carries a valid session.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": h.authenticated(r)})
}

// AuthMiddleware gates the API behind the session cookie. Health checks,
// metrics, auth endpoints, and static files stay open; everything under
// /api requires a session once setup has completed.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requiresAuth(r.URL.Path) || !h.db.HasUsers() || h.authenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	})
}

func (h *Handlers) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	_, err = h.db.ValidateSession(cookie.Value)
	return err == nil
}

func requiresAuth(path string) bool {
	if !strings.HasPrefix(path, "/api/") {
		return false
	}
	return !strings.HasPrefix(path, "/api/auth/")
}
