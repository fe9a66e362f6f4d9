package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "orfin/pkg/domain-errors"
)

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps a domain error code onto an HTTP status. Anything that
// is not a domain error is an internal failure and its detail stays out of
// the response.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		if logger != nil {
			logger.Error("unhandled error", "error", err)
		}
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: string(dErrors.CodeInternal), Message: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch de.Code {
	case dErrors.CodeValidation, dErrors.CodeReference:
		status = http.StatusBadRequest
	case dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeForbidden:
		status = http.StatusForbidden
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case dErrors.CodeInternal:
		if logger != nil {
			logger.Error("internal error", "error", err)
		}
		respondInternal(w)
		return
	}
	respondJSON(w, status, errorBody{Error: string(de.Code), Field: de.Field, Message: de.Message})
}

func respondInternal(w http.ResponseWriter) {
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: string(dErrors.CodeInternal), Message: "internal error"})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid request body")
	}
	return nil
}
