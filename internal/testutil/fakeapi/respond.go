package fakeapi

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/pakbooking/pkg/logger"
)

// ErrorResponse is the backend's error body. Field errors are written as
// their own keys next to detail, the way DRF serializers report them.
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail, code string) {
	writeJSON(w, status, ErrorResponse{Detail: detail, Code: code})
}

func writeFieldErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, fields)
}

func badRequest(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusBadRequest, detail, "invalid")
}

func unauthorized(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusUnauthorized, detail, "not_authenticated")
}

func tokenNotValid(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Given token not valid for any token type", "token_not_valid")
}

func forbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "You do not have permission to perform this action.", "permission_denied")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Not found.", "not_found")
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal server error", "error")
}

func decodeBody(r *http.Request, v any) bool {
	if r.Body == nil {
		return false
	}
	return json.NewDecoder(r.Body).Decode(v) == nil
}
