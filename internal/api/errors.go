package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexanderramin/promptforge/internal/apperr"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// StatusFor maps a typed error code to an HTTP status.
func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeUnclearTask:
		return http.StatusUnprocessableEntity
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	case apperr.CodeQuotaExceeded:
		return http.StatusPaymentRequired
	case apperr.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		// The client went away; nobody reads this response.
		w.WriteHeader(499)
		return
	}
	e, ok := apperr.As(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    "INTERNAL",
			Message: apperr.UserMessage(err),
		}})
		return
	}
	writeJSON(w, StatusFor(e.Code), errorBody{Error: errorDetail{
		Code:    string(e.Code),
		Message: apperr.UserMessage(e),
		Reason:  e.Reason,
		Scope:   e.Scope,
		Kind:    e.Kind,
	}})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    "BAD_REQUEST",
		Message: err.Error(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
