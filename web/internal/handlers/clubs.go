package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/clubhouse/internal/api"
	"github.com/devilmonastery/clubhouse/internal/pkg/urlutil"
)

const clubsPageSize = 20

// ClubsPage lists the club directory, optionally filtered by category.
func (h *Handler) ClubsPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "clubs")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	clubs, err := entry(r).API.Clubs.List(r.Context(), api.ListClubsOptions{
		Page:     page,
		Size:     clubsPageSize,
		Category: category,
	})
	if err != nil {
		h.fail(w, r, err, "clubs")
		return
	}

	data["Clubs"] = clubs
	data["Category"] = category
	data["Page"] = page
	h.renderTemplate(w, "clubs.html", data)
}

// ClubPage shows one club. Requests with a stale or missing slug are
// redirected to the canonical path.
func (h *Handler) ClubPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.newTemplateData(w, r, "clubs")
	if err != nil {
		h.fail(w, r, err, "profile")
		return
	}

	id := mux.Vars(r)["id"]
	page, err := entry(r).Dashboard.ClubPage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "club")
		return
	}

	if canonical := urlutil.ClubPath(page.Club.GroupID, page.Club.Name); canonical != r.URL.Path {
		http.Redirect(w, r, canonical, http.StatusMovedPermanently)
		return
	}

	data["ClubPage"] = page
	h.renderTemplate(w, "club.html", data)
}

// JoinClub sends a join request for the club.
func (h *Handler) JoinClub(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	resp, err := entry(r).API.Clubs.RequestToJoin(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "join request")
		return
	}

	msg := resp.Message
	if msg == "" {
		msg = "Join request sent."
	}
	h.log.Info("join requested", slog.String("club_id", id))
	h.flash(w, r, msg)
	http.Redirect(w, r, "/clubs/"+id, http.StatusSeeOther)
}
