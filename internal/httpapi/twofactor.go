package httpapi

import (
	"errors"
	"net/http"

	"github.com/perseusdefend/perseus/internal/authz"
	"github.com/perseusdefend/perseus/internal/service"
)

// TwoFactorHandler manages the caller's own second factor. The gate
// guarantees an authenticated, non-demo identity before any of these
// run.
type TwoFactorHandler struct {
	TwoFactor *service.TwoFactorService
}

// HandleEnrollTOTP godoc
//
//	@Summary		Start authenticator-app enrollment
//	@Description	Returns the secret and otpauth URL; the factor stays off until confirmed.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	envelope
//	@Router			/api/auth/2fa/totp/enroll [post]
func (h *TwoFactorHandler) HandleEnrollTOTP(w http.ResponseWriter, r *http.Request) {
	id := authz.IdentityFromContext(r.Context())

	enrollment, err := h.TwoFactor.EnrollTOTP(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, service.ErrTOTPAlreadyEnrolled) {
			respondError(w, http.StatusConflict, "An authenticator app is already enrolled")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, enrollment)
}

type totpConfirmRequest struct {
	Code string `json:"code"`
}

// HandleConfirmTOTP godoc
//
//	@Summary	Confirm authenticator-app enrollment with a first code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/auth/2fa/totp/confirm [post]
func (h *TwoFactorHandler) HandleConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	var req totpConfirmRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := authz.IdentityFromContext(r.Context())
	if err := h.TwoFactor.ConfirmTOTP(r.Context(), id.ID, req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidTOTPCode) {
			respondOutcome(w, service.OutcomeInvalidCode, nil)
			return
		}
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"enabled": true})
}

type emailFactorRequest struct {
	Enabled bool `json:"enabled"`
}

// HandleEmailFactor godoc
//
//	@Summary	Toggle the emailed-code second factor
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/auth/2fa/email [post]
func (h *TwoFactorHandler) HandleEmailFactor(w http.ResponseWriter, r *http.Request) {
	var req emailFactorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := authz.IdentityFromContext(r.Context())
	if err := h.TwoFactor.SetEmailFactor(r.Context(), id.ID, req.Enabled); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

// HandleDisable godoc
//
//	@Summary	Turn off all second factors
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/auth/2fa [delete]
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	id := authz.IdentityFromContext(r.Context())
	if err := h.TwoFactor.Disable(r.Context(), id.ID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"enabled": false})
}
