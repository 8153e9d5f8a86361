package service

// Outcome codes travel as data in the response envelope. Expected
// domain results (wrong password, locked account, exhausted quota) are
// outcomes, not errors; the error path is reserved for infrastructure
// failures.
const (
	OutcomeInvalidEmail         = "INVALID_EMAIL"
	OutcomeInvalidPassword      = "INVALID_PASSWORD"
	OutcomeAccountLocked        = "ACCOUNT_LOCKED"
	OutcomeInvalidCode          = "INVALID_CODE"
	OutcomeCodeInvalidOrExpired = "CODE_INVALID_OR_EXPIRED"
	OutcomeTooManyRequests      = "TOO_MANY_REQUESTS"

	OutcomeTwoFactorCodeSent = "2FA_LOGIN_CODE_SENT"
	OutcomeTwoFactorSuccess  = "2FA_LOGIN_SUCCESS"
	OutcomeLoginSuccess      = "LOGIN_SUCCESS"
	OutcomeTokenRefreshed    = "TOKEN_REFRESHED"
	OutcomeInvalidRefresh    = "INVALID_REFRESH_TOKEN"

	OutcomeEmailInUse      = "EMAIL_IN_USE"
	OutcomeUserNotFound    = "USER_NOT_FOUND"
	OutcomeRegisterSuccess = "REGISTER_SUCCESS"

	OutcomeVerificationCodeSent     = "VERIFICATION_CODE_SENT"
	OutcomePasswordResetRequestSent = "PASSWORD_RESET_REQUEST_SENT"
	OutcomePasswordResetSuccess     = "PASSWORD_RESET_SUCCESS"
	OutcomeLinkInvalidOrExpired     = "LINK_INVALID_OR_EXPIRED"
	OutcomeDemoRequest              = "DEMO_REQUEST"
)
