package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
)

var (
	ErrTOTPAlreadyEnrolled = errors.New("totp already enrolled")
	ErrInvalidTOTPCode     = errors.New("invalid totp code")
)

// TwoFactorService manages the optional authenticator-app factor. The
// emailed code path needs no enrollment; TOTP is opt-in on top.
type TwoFactorService struct {
	Store  store.Store
	Issuer string // e.g. "Perseus Defend"
}

type TOTPEnrollment struct {
	Secret string `json:"secret"` // base32, for manual entry
	URL    string `json:"url"`    // otpauth:// for QR rendering
}

// EnrollTOTP generates a secret for the account. The secret is stored
// immediately but only a verified ConfirmTOTP turns the factor on.
func (s *TwoFactorService) EnrollTOTP(ctx context.Context, accountID idx.ID) (TOTPEnrollment, error) {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return TOTPEnrollment{}, err
	}
	if account.TwoFactorEnabled && account.TOTPSecret != nil {
		return TOTPEnrollment{}, ErrTOTPAlreadyEnrolled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	secret := key.Secret()
	if err := s.Store.Accounts().SetTwoFactor(ctx, accountID, account.TwoFactorEnabled, &secret); err != nil {
		return TOTPEnrollment{}, fmt.Errorf("store totp secret: %w", err)
	}

	return TOTPEnrollment{Secret: secret, URL: key.URL()}, nil
}

// ConfirmTOTP checks a first code against the stored secret and enables
// the second factor.
func (s *TwoFactorService) ConfirmTOTP(ctx context.Context, accountID idx.ID, code string) error {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TOTPSecret == nil || *account.TOTPSecret == "" {
		return ErrInvalidTOTPCode
	}

	if !totp.Validate(code, *account.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Accounts().SetTwoFactor(ctx, accountID, true, account.TOTPSecret)
}

// SetEmailFactor toggles the emailed-code factor without touching any
// enrolled TOTP secret.
func (s *TwoFactorService) SetEmailFactor(ctx context.Context, accountID idx.ID, enabled bool) error {
	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	return s.Store.Accounts().SetTwoFactor(ctx, accountID, enabled, account.TOTPSecret)
}

// Disable turns off both factors and wipes the TOTP secret.
func (s *TwoFactorService) Disable(ctx context.Context, accountID idx.ID) error {
	return s.Store.Accounts().SetTwoFactor(ctx, accountID, false, nil)
}
