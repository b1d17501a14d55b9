package api

import (
	"context"
	"net/http"
	"time"
)

// handleRoot describes the service
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"name":    ServiceName,
		"status":  "ok",
		"health":  "/health",
		"version": s.version,
	})
}

// handleHealth is a liveness check; it reports database reachability but always returns 200
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "ok"
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check: database unavailable")
		database = "unavailable"
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
		"market":    s.svc.ProviderName(),
	})
}
