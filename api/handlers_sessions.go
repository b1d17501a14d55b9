package api

import (
	"net/http"

	"github.com/gorilla/mux"

	models "ai-market-coach/database/models_pkg"
)

// sessionList is the response of GET /api/sessions
type sessionList struct {
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := getIntParam(r, "limit", models.DefaultListLimit)
	if err != nil {
		s.respondWithAppError(w, r, err)
		return
	}
	offset, err := getIntParam(r, "offset", 0)
	if err != nil {
		s.respondWithAppError(w, r, err)
		return
	}

	opts := models.ListOptions{
		Ticker: r.URL.Query().Get("ticker"),
		Limit:  limit,
		Offset: offset,
	}.Normalize()

	sessions, err := s.svc.Sessions(r.Context(), opts)
	if err != nil {
		s.respondWithAppError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	respondWithJSON(w, http.StatusOK, sessionList{
		Sessions: sessions,
		Count:    len(sessions),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := s.svc.Session(r.Context(), id)
	if err != nil {
		s.respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}
