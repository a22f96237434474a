package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"burnout-risk/internal/common"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// retryAfterSeconds is advertised on 503 responses while no model is loaded.
const retryAfterSeconds = "30"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Kind      common.Kind `json:"kind"`
	RequestID string      `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func mapDomainError(err error) int {
	switch common.KindOf(err) {
	case common.KindInputValidation, common.KindEmptySeries:
		return http.StatusBadRequest
	case common.KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code. Internal errors are logged in full
// and reported to the client with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapDomainError(err)
	kind := common.KindOf(err)
	reqID := middleware.GetReqID(r.Context())

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("Request failed")
		msg = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind, RequestID: reqID})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     msg,
		Kind:      common.KindInputValidation,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

var errNoRegistry = errors.New("model registry not configured")
