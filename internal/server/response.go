// Package server is the HTTP boundary: chi router, middleware,
// request/response marshalling, and the SSE chat stream. Grounded on
// the teacher's internal/server package (server.go/response.go/sse.go),
// reworked around this system's resources instead of sessions/tools.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps an apperr.Kind to its HTTP status, per spec.md §7's
// propagation policy.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.BadRequest:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperr.UnprocessableEntity:
		return http.StatusUnprocessableEntity
	case apperr.TooManyRequests:
		return http.StatusTooManyRequests
	case apperr.ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a 2xx JSON response.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeErr maps err to its HTTP status and writes the error envelope.
// Any error that is not an *apperr.Error is treated as Internal.
func writeErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(kind))
	_ = json.NewEncoder(w).Encode(errorResponse{Error: errorDetail{
		Kind:    string(kind),
		Message: err.Error(),
	}})
}

// decodeJSON decodes the request body into dst, returning a BadRequest
// apperr.Error on malformed JSON.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.BadRequest, "invalid JSON body", err)
	}
	return nil
}
