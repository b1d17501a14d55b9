package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ai-market-coach/apperrors"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// respondWithJSON writes payload as JSON with the given status
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, kind, message string) {
	respondWithJSON(w, code, errorResponse{Error: message, Kind: kind})
}

// respondWithAppError maps err onto the error taxonomy and logs server-side failures.
// Internal error details are not exposed to the client.
func (s *Server) respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)
	message := err.Error()

	id, _ := r.Context().Value(requestIDKey).(string)
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", code).Str("request_id", id).Str("path", r.URL.Path).Msg("request failed")
	}
	if kind == apperrors.KindInternal {
		message = "internal error"
	}
	respondWithError(w, code, string(kind), message)
}

// getIntParam retrieves an integer query parameter, rejecting malformed values
func getIntParam(r *http.Request, key string, defaultVal int) (int, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, apperrors.NewValidationErrorWithValue(key, "must be an integer", valStr)
	}
	return val, nil
}
