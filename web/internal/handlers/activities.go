package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/urlutil"
)

// ActivitiesPage lists the activities the user is enrolled in.
func (h *Handler) ActivitiesPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "activities")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	activities, err := entry(r).API.Users.MyActivities(r.Context())
	if err != nil {
		h.fail(w, r, err, "activities")
		return
	}

	data["Activities"] = activities
	h.renderTemplate(w, "activities.html", data)
}

// ActivityPage shows one activity.
func (h *Handler) ActivityPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "activities")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	activity, err := entry(r).API.Activities.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err, "activity")
		return
	}

	if canonical := urlutil.ActivityPath(activity.ActivityID, activity.Name); canonical != r.URL.Path {
		http.Redirect(w, r, canonical, http.StatusMovedPermanently)
		return
	}

	data["Activity"] = activity
	h.renderTemplate(w, "activity.html", data)
}

// Enroll joins or leaves an activity.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, action := vars["id"], vars["action"]
	users := entry(r).API.Users

	var resp models.MessageResponse
	var err error
	fallback := "You joined the activity."
	if action == "join" {
		resp, err = users.JoinActivity(r.Context(), id)
	} else {
		resp, err = users.LeaveActivity(r.Context(), id)
		fallback = "You left the activity."
	}
	if err != nil {
		h.fail(w, r, err, "enrollment")
		return
	}

	h.log.Info("enrollment changed",
		slog.String("activity_id", id),
		slog.String("action", action))
	msg := resp.Message
	if msg == "" {
		msg = fallback
	}
	h.flash(w, r, msg)
	http.Redirect(w, r, "/activities/"+id, http.StatusSeeOther)
}
