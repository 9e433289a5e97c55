package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// AdminClubPage is the management view of a club: members, stats, join requests.
func (h *Handler) AdminClubPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "clubs")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	details, err := entry(r).Dashboard.ClubDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err, "club details")
		return
	}

	data["Details"] = details
	h.renderTemplate(w, "admin_club.html", data)
}

// DecideJoinRequest approves or rejects a pending join request.
func (h *Handler) DecideJoinRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID, requestID := vars["id"], vars["requestID"]
	approve := vars["action"] == "approve"

	resp, err := entry(r).API.Admin.ProcessJoinRequest(r.Context(), clubID, requestID, approve)
	if err != nil {
		h.fail(w, r, err, "join request")
		return
	}

	msg := resp.Message
	if msg == "" {
		if approve {
			msg = "Request approved."
		} else {
			msg = "Request rejected."
		}
	}
	h.log.Info("join request decided",
		slog.String("club_id", clubID),
		slog.String("request_id", requestID),
		slog.Bool("approved", approve))
	h.flash(w, r, msg)
	http.Redirect(w, r, "/admin/clubs/"+clubID, http.StatusSeeOther)
}
