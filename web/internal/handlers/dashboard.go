package handlers

import (
	"net/http"
)

// Dashboard is the landing page: the user's clubs, activities, events and notifications.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "dashboard")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	d, err := entry(r).Dashboard.UserDashboard(r.Context())
	if err != nil {
		h.fail(w, r, err, "dashboard")
		return
	}
	data["Dashboard"] = d

	h.renderTemplate(w, "dashboard.html", data)
}
