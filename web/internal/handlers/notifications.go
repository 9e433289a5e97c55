package handlers

import (
	"net/http"
	"strconv"

	"github.com/devilmonastery/clubhouse/internal/models"
)

// NotificationsPage lists the user's notifications, unread first as the backend orders them.
func (h *Handler) NotificationsPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "notifications")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	notifications, err := entry(r).API.Users.Notifications(r.Context())
	if err != nil {
		h.fail(w, r, err, "notifications")
		return
	}

	data["Notifications"] = notifications
	h.renderTemplate(w, "notifications.html", data)
}

// MarkRead marks the selected notifications read, or every unread one when
// the form carries all=1.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	users := entry(r).API.Users

	ids := r.PostForm["id"]
	if r.PostForm.Get("all") == "1" {
		all, err := users.Notifications(r.Context())
		if err != nil {
			h.fail(w, r, err, "notifications")
			return
		}
		ids = nil
		for _, n := range models.Unread(all) {
			ids = append(ids, strconv.FormatInt(n.ID, 10))
		}
	}

	if len(ids) > 0 {
		if err := users.MarkNotificationsRead(r.Context(), ids); err != nil {
			h.fail(w, r, err, "notifications")
			return
		}
	}
	http.Redirect(w, r, "/notifications", http.StatusSeeOther)
}
