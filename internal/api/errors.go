package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/kb"
)

// ErrBadRequest marks malformed request bodies and parameters.
var ErrBadRequest = errors.New("bad request")

// StatusCode maps planner and catalogue errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidGeometry),
		errors.Is(err, kb.ErrInvalidSatellite):
		return http.StatusBadRequest
	case errors.Is(err, kb.ErrSatelliteNotFound):
		return http.StatusNotFound
	case errors.Is(err, kb.ErrSatelliteExists):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, StatusCode(err), errorBody{
		Error:     err.Error(),
		RequestID: w.Header().Get(requestIDHeader),
	})
}
