package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/perseusdefend/perseus/internal/service"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/httpx"
	"github.com/perseusdefend/perseus/pkg/slogx"
)

// envelope is the uniform response shape. Message carries an outcome
// code; Error carries prose for hard failures. Exactly one of the two
// is set.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// successOutcomes marks the codes reported with success=true.
var successOutcomes = map[string]bool{
	service.OutcomeLoginSuccess:             true,
	service.OutcomeTwoFactorSuccess:         true,
	service.OutcomeTwoFactorCodeSent:        true,
	service.OutcomeTokenRefreshed:           true,
	service.OutcomeRegisterSuccess:          true,
	service.OutcomeVerificationCodeSent:     true,
	service.OutcomePasswordResetRequestSent: true,
	service.OutcomePasswordResetSuccess:     true,
	service.OutcomeDemoRequest:              true,
}

// statusOverrides lifts a few outcomes out of the default 200. Soft
// domain outcomes stay 200 with success=false; quota exhaustion and a
// dead refresh token speak HTTP.
var statusOverrides = map[string]int{
	service.OutcomeTooManyRequests: http.StatusTooManyRequests,
	service.OutcomeInvalidRefresh:  http.StatusUnauthorized,
}

func respondOutcome(w http.ResponseWriter, outcome string, data any) {
	status := http.StatusOK
	if s, ok := statusOverrides[outcome]; ok {
		status = s
	}

	httpx.WriteJSON(w, status, envelope{
		Success: successOutcomes[outcome],
		Data:    data,
		Message: outcome,
	})
}

func respondData(w http.ResponseWriter, status int, data any) {
	httpx.WriteJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, envelope{Success: false, Error: msg})
}

// respondServiceError logs the detail and hides it from the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Resource not found")
		return
	}

	slogx.FromContext(r.Context()).Error("request failed", "err", err)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
