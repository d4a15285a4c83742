package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"trimly/apperrors"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]any{"success": false, "error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// HandleError maps the error taxonomy onto HTTP status codes.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		RespondWithError(w, http.StatusConflict, "slot no longer available")
	case errors.Is(err, apperrors.ErrInvalidTransition):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrPricePolicy):
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, apperrors.ErrConnection):
		RespondWithError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

type M map[string]interface{}
