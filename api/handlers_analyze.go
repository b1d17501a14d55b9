package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ai-market-coach/apperrors"
	"ai-market-coach/coach"
)

// maxBodyBytes bounds analyze request bodies
const maxBodyBytes = 1 << 16

// handleAnalyze runs one analysis and returns the full result
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req coach.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.respondWithAppError(w, r, apperrors.NewValidationError("body", "must be a JSON object with a ticker field"))
		return
	}

	result, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		s.respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleChart renders the price chart as PNG
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := coach.Request{
		Ticker:   q.Get("ticker"),
		Period:   q.Get("period"),
		Interval: q.Get("interval"),
	}

	png, err := s.svc.Chart(r.Context(), req)
	if err != nil {
		s.respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
