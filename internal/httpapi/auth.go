package httpapi

import (
	"net/http"

	"github.com/perseusdefend/perseus/internal/authz"
	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/service"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// AuthHandler serves login, refresh, registration, password recovery
// and the verification code endpoints.
type AuthHandler struct {
	Auth         *service.AuthService
	Accounts     *service.AccountService
	Verification *service.VerificationService
}

type sessionData struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *accountView `json:"user,omitempty"`
}

func newSessionData(s *tokenx.Session, account *domain.Account) sessionData {
	data := sessionData{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
	if account != nil {
		v := newAccountView(account)
		data.User = &v
	}
	return data
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Code       string `json:"code,omitempty"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Password stage, optionally followed by a second-factor code in the same endpoint.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	loginRequest	true	"Credentials"
//	@Success		200	{object}	envelope
//	@Failure		429	{object}	envelope
//	@Router			/api/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}

	res, err := h.Auth.Login(r.Context(), service.LoginInput{
		Email:      email,
		Password:   req.Password,
		Code:       req.Code,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondOutcome(w, res.Outcome, loginData(res))
}

func loginData(res service.LoginResult) any {
	switch res.Outcome {
	case service.OutcomeLoginSuccess, service.OutcomeTwoFactorSuccess, service.OutcomeTwoFactorCodeSent:
		return newSessionData(res.Session, res.Account)
	case service.OutcomeAccountLocked:
		return map[string]any{"lockedUntil": res.LockedUntil}
	case service.OutcomeInvalidPassword:
		return map[string]any{"attemptsRemaining": res.AttemptsRemaining}
	}
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh godoc
//
//	@Summary	Mint a new access token from a refresh token
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Failure	401	{object}	envelope
//	@Router		/api/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(authz.HeaderRefreshToken)
	if token == "" {
		var req refreshRequest
		if !decodeBody(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}

	res, err := h.Auth.Refresh(r.Context(), token)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var data any
	if res.Outcome == service.OutcomeTokenRefreshed {
		data = map[string]string{"accessToken": res.AccessToken}
	}
	respondOutcome(w, res.Outcome, data)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Code     string `json:"code"`
}

// HandleRegister godoc
//
//	@Summary		Register an account
//	@Description	Requires a live EMAIL_VERIFY code proving mailbox ownership.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	registerRequest	true	"New account"
//	@Success		200	{object}	envelope
//	@Router			/api/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}
	if !requirePassword(w, req.Password) {
		return
	}
	role, ok := requireRole(w, req.Role)
	if !ok {
		return
	}

	res, err := h.Accounts.Register(r.Context(), service.RegisterInput{
		Email:    email,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
		Code:     req.Code,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var data any
	if res.Account != nil {
		data = newAccountView(res.Account)
	}
	respondOutcome(w, res.Outcome, data)
}

type emailRequest struct {
	Email string `json:"email"`
}

// HandleResetRequest godoc
//
//	@Summary	Request a password reset code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Failure	429	{object}	envelope
//	@Router		/api/auth/reset-password/request [post]
func (h *AuthHandler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}

	res, err := h.Accounts.RequestPasswordReset(r.Context(), email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOutcome(w, res.Outcome, nil)
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// HandleResetPassword godoc
//
//	@Summary	Redeem a reset code and set a new password
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/api/auth/reset-password/reset [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}
	if !requirePassword(w, req.NewPassword) {
		return
	}

	res, err := h.Accounts.ResetPassword(r.Context(), service.ResetPasswordInput{
		Email:       email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOutcome(w, res.Outcome, nil)
}

type verificationSendRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// HandleVerificationSend godoc
//
//	@Summary		Issue a verification code
//	@Description	DEMO_REQUEST records the prospect instead of issuing a code.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	envelope
//	@Failure		429	{object}	envelope
//	@Router			/api/auth/verification/send [post]
func (h *AuthHandler) HandleVerificationSend(w http.ResponseWriter, r *http.Request) {
	var req verificationSendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}

	typ := domain.CodeType(req.Type)
	// The second factor is only ever triggered by a password login.
	if !typ.Valid() || typ == domain.CodeTwoFactor {
		respondError(w, http.StatusBadRequest, "Unknown verification type")
		return
	}

	res, err := h.Verification.Send(r.Context(), email, typ)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOutcome(w, res.Outcome, nil)
}

type verificationVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Type  string `json:"type"`
}

// HandleVerificationVerify godoc
//
//	@Summary		Redeem a verification code
//	@Description	Codes are single use; a second redemption fails.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	envelope
//	@Router			/api/auth/verification/verify [post]
func (h *AuthHandler) HandleVerificationVerify(w http.ResponseWriter, r *http.Request) {
	var req verificationVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email, ok := requireEmail(w, req.Email)
	if !ok {
		return
	}

	typ := domain.CodeType(req.Type)
	if !typ.Valid() || typ == domain.CodeTwoFactor {
		respondError(w, http.StatusBadRequest, "Unknown verification type")
		return
	}

	consumed, err := h.Verification.Consume(r.Context(), email, req.Code, typ)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !consumed {
		respondOutcome(w, service.OutcomeCodeInvalidOrExpired, nil)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"verified": true})
}
