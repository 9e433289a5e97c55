package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/pkg/urlutil"
	"github.com/devilmonastery/clubhouse/web/internal/middleware"
	"github.com/devilmonastery/clubhouse/web/internal/render"
	"github.com/devilmonastery/clubhouse/web/internal/session"
)

// Handler holds dependencies for all web handlers
type Handler struct {
	sessions  *session.Manager
	templates *render.TemplateSet
	log       *slog.Logger
}

// New creates a new handler with dependencies
func New(sessions *session.Manager, templates *render.TemplateSet, log *slog.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		templates: templates,
		log:       logger.WithComponent(log, "web_handler"),
	}
}

// Register adds the dashboard routes to router.
func (h *Handler) Register(router *mux.Router, authMw *middleware.AuthMiddleware) {
	authed := func(path string, fn http.HandlerFunc, methods ...string) {
		router.Handle(path, authMw.RequireAuth(fn)).Methods(methods...)
	}

	router.HandleFunc("/login", h.LoginPage).Methods("GET")
	router.HandleFunc("/login", h.Login).Methods("POST")
	router.HandleFunc("/logout", h.Logout).Methods("GET", "POST")

	authed("/", h.Dashboard, "GET")

	authed("/clubs", h.ClubsPage, "GET")
	authed("/clubs/{id:[0-9]+}", h.ClubPage, "GET")
	authed("/clubs/{id:[0-9]+}/{slug}", h.ClubPage, "GET")
	authed("/clubs/{id:[0-9]+}/join", h.JoinClub, "POST")

	authed("/activities", h.ActivitiesPage, "GET")
	authed("/activities/{id:[0-9]+}", h.ActivityPage, "GET")
	authed("/activities/{id:[0-9]+}/{slug}", h.ActivityPage, "GET")
	authed("/activities/{id:[0-9]+}/{action:join|leave}", h.Enroll, "POST")

	authed("/notifications", h.NotificationsPage, "GET")
	authed("/notifications/read", h.MarkRead, "POST")

	authed("/admin/clubs/{id:[0-9]+}", h.AdminClubPage, "GET")
	authed("/admin/clubs/{id:[0-9]+}/requests/{requestID:[0-9]+}/{action:approve|reject}", h.DecideJoinRequest, "POST")
}

// entry returns the session RequireAuth attached to the request.
func entry(r *http.Request) *session.Entry {
	e, ok := middleware.FromContext(r.Context())
	if !ok {
		panic("handlers: route registered without RequireAuth")
	}
	return e
}

// newTemplateData creates a new template data map with standard fields populated
// Callers can add page-specific fields to the returned map
func (h *Handler) newTemplateData(w http.ResponseWriter, r *http.Request, page string) (map[string]interface{}, error) {
	var user *models.UserProfile
	if e, ok := middleware.FromContext(r.Context()); ok {
		user = e.Auth.CurrentUser()
		if user == nil {
			// Restored after a restart or eviction: only the credential survived
			u, err := e.Auth.FetchProfile(r.Context())
			if err != nil {
				return nil, err
			}
			user = u
		}
	}
	return map[string]interface{}{
		"User":        user,
		"CurrentPage": page,
		"Flash":       h.sessions.Flash(w, r),
	}, nil
}

// renderTemplate renders a template with data
func (h *Handler) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	h.renderStatus(w, http.StatusOK, name, data)
}

func (h *Handler) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}
	h.log.Debug("rendering template", slog.String("template", name))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Execute(w, name, data); err != nil {
		h.log.Error("template rendering failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	var user *models.UserProfile
	if e, ok := middleware.FromContext(r.Context()); ok {
		user = e.Auth.CurrentUser()
	}
	h.renderStatus(w, status, "error.html", map[string]interface{}{
		"User":        user,
		"CurrentPage": "",
		"Flash":       "",
		"Status":      status,
		"Message":     message,
	})
}

// fail turns a backend error into a response. A session whose credential
// could not be renewed is dropped and sent to the login page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case client.IsSessionExpired(err):
		if e, ok := middleware.FromContext(r.Context()); ok {
			if err := h.sessions.Expire(w, r, e); err != nil {
				h.log.Warn("failed to expire session", slog.String("error", err.Error()))
			}
		}
		http.Redirect(w, r, urlutil.LoginURL(returnTo(r), true), http.StatusSeeOther)
		return
	case client.IsNotFound(err):
		h.renderError(w, r, http.StatusNotFound, "Not found.")
		return
	case client.IsForbidden(err):
		h.renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
		return
	case client.IsUnauthorized(err):
		http.Redirect(w, r, urlutil.LoginURL(returnTo(r), false), http.StatusSeeOther)
		return
	}

	h.log.Error("backend call failed",
		slog.String("what", what),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))

	var te *client.TransportError
	if errors.As(err, &te) {
		h.renderError(w, r, http.StatusBadGateway, "The club service is unavailable, try again shortly.")
		return
	}
	var se *client.StatusError
	if errors.As(err, &se) && se.Message != "" {
		h.renderError(w, r, http.StatusBadGateway, se.Message)
		return
	}
	h.renderError(w, r, http.StatusBadGateway, "Failed to load "+what+".")
}

// returnTo is where the login page should send the user back to.
func returnTo(r *http.Request) string {
	if r.Method == http.MethodGet {
		return r.URL.RequestURI()
	}
	return "/"
}

// flash queues msg for the next page, logging rather than failing.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		return
	}
	if err := h.sessions.AddFlash(w, r, msg); err != nil {
		h.log.Debug("failed to queue flash", slog.String("error", err.Error()))
	}
}
