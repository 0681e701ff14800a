package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/statelessauth/internal/common"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON encodes data before touching the response, so an encoding
// failure still yields a well-formed 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal","message":"Internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: errorCode, Message: message})
}

// writeServiceError maps a service error onto a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Bad credentials")
	case errors.Is(err, common.ErrorForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", "Access denied")
	case errors.Is(err, common.ErrorNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, common.ErrorValidation):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSONError(w, http.StatusConflict, "conflict", "Already exists")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal", "Internal error")
	}
}

// decodeJSON reads a single JSON object from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "parse_error", "Request body must be a JSON object")
		return false
	}
	return true
}
