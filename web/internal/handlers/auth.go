package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devilmonastery/clubhouse/internal/auth"
	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/urlutil"
)

// LoginPage shows the sign-in form, or skips it for a signed-in session.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := urlutil.SafeNext(r.URL.Query().Get("next"))
	if e, err := h.sessions.Lookup(r); err == nil && e.Auth.IsAuthenticated() {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginForm{
		Next:    next,
		Expired: r.URL.Query().Get("expired") == "1",
	})
}

// Login signs in with a username or email address and starts a new session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form := loginForm{
		Identifier: strings.TrimSpace(r.PostForm.Get("identifier")),
		Next:       urlutil.SafeNext(r.PostForm.Get("next")),
	}
	password := r.PostForm.Get("password")
	if form.Identifier == "" || password == "" {
		form.Error = "Username and password are required."
		h.renderLogin(w, r, http.StatusBadRequest, form)
		return
	}

	e, err := h.sessions.Start(w, r)
	if err != nil {
		h.log.Error("failed to start session", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, err := e.Auth.Login(r.Context(), form.Identifier, password)
	if err != nil {
		var te *client.TransportError
		switch {
		case errors.Is(err, auth.ErrLoginRejected), client.IsUnauthorized(err):
			form.Error = "Invalid username or password."
			h.renderLogin(w, r, http.StatusUnauthorized, form)
		case errors.As(err, &te):
			h.log.Error("login failed", slog.String("error", err.Error()))
			form.Error = "The club service is unavailable, try again shortly."
			h.renderLogin(w, r, http.StatusBadGateway, form)
		default:
			h.log.Warn("login failed", slog.String("error", err.Error()))
			form.Error = client.Message(err)
			h.renderLogin(w, r, http.StatusBadGateway, form)
		}
		return
	}

	h.sessions.Persist(e)
	h.log.Info("user signed in",
		slog.String("session_id", e.ID),
		slog.String("username", user.Username))
	http.Redirect(w, r, form.Next, http.StatusSeeOther)
}

// Logout ends the session both here and on the backend.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.log.Warn("failed to clear session cookie", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type loginForm struct {
	Identifier string
	Next       string
	Expired    bool
	Error      string
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form loginForm) {
	h.renderStatus(w, status, "login.html", map[string]interface{}{
		"User":        (*models.UserProfile)(nil),
		"CurrentPage": "login",
		"Flash":       "",
		"Identifier":  form.Identifier,
		"Next":        form.Next,
		"Expired":     form.Expired,
		"Error":       form.Error,
	})
}
