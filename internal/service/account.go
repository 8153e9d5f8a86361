package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/cryptox"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/slogx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// AccountService covers registration, password recovery and the user
// admin surface.
type AccountService struct {
	Store        store.Store
	Verification *VerificationService
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     tokenx.Role
	Code     string // EMAIL_VERIFY code proving mailbox ownership
}

type RegisterResult struct {
	Outcome string
	Account *domain.Account
}

// Register creates an account after redeeming the EMAIL_VERIFY code the
// address received.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	ok, err := s.Verification.Consume(ctx, in.Email, in.Code, domain.CodeEmailVerify)
	if err != nil {
		return RegisterResult{}, err
	}
	if !ok {
		return RegisterResult{Outcome: OutcomeCodeInvalidOrExpired}, nil
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           idx.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return RegisterResult{Outcome: OutcomeEmailInUse}, nil
		}
		return RegisterResult{}, fmt.Errorf("create account: %w", err)
	}

	slogx.FromContext(ctx).Info("account registered",
		"account_id", account.ID, "role", string(account.Role))
	return RegisterResult{Outcome: OutcomeRegisterSuccess, Account: &account}, nil
}

// RequestPasswordReset issues a PASSWORD_RESET code to a known address.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (SendResult, error) {
	_, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SendResult{Outcome: OutcomeUserNotFound}, nil
		}
		return SendResult{}, fmt.Errorf("load account: %w", err)
	}

	res, err := s.Verification.Send(ctx, email, domain.CodePasswordReset)
	if err != nil {
		return SendResult{}, err
	}
	if res.Outcome == OutcomeTooManyRequests {
		return res, nil
	}

	return SendResult{Outcome: OutcomePasswordResetRequestSent}, nil
}

type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// ResetPassword redeems a PASSWORD_RESET code and replaces the hash. A
// successful reset also lifts any lockout, since the legitimate owner
// has just proven control of the mailbox.
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) (SendResult, error) {
	account, err := s.Store.Accounts().GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SendResult{Outcome: OutcomeLinkInvalidOrExpired}, nil
		}
		return SendResult{}, fmt.Errorf("load account: %w", err)
	}

	ok, err := s.Verification.Consume(ctx, in.Email, in.Code, domain.CodePasswordReset)
	if err != nil {
		return SendResult{}, err
	}
	if !ok {
		return SendResult{Outcome: OutcomeLinkInvalidOrExpired}, nil
	}

	hash, err := cryptox.HashPassword(in.NewPassword)
	if err != nil {
		return SendResult{}, fmt.Errorf("hash password: %w", err)
	}

	if err := s.Store.Accounts().UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return SendResult{}, fmt.Errorf("update password: %w", err)
	}
	if err := s.Store.Accounts().ClearLockout(ctx, account.ID); err != nil {
		return SendResult{}, fmt.Errorf("clear lockout: %w", err)
	}

	slogx.FromContext(ctx).Info("password reset", "account_id", account.ID)
	return SendResult{Outcome: OutcomePasswordResetSuccess}, nil
}

func (s *AccountService) Get(ctx context.Context, id idx.ID) (domain.Account, error) {
	return s.Store.Accounts().GetByID(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.Store.Accounts().List(ctx)
}

type UpdateAccountInput struct {
	ID    idx.ID
	Email string
	Name  string
	Role  tokenx.Role
}

type UpdateResult struct {
	Outcome string
	Account *domain.Account
}

func (s *AccountService) Update(ctx context.Context, in UpdateAccountInput) (UpdateResult, error) {
	err := s.Store.Accounts().UpdateProfile(ctx, in.ID, in.Email, in.Name, string(in.Role))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return UpdateResult{Outcome: OutcomeUserNotFound}, nil
		case errors.Is(err, store.ErrAlreadyExists):
			return UpdateResult{Outcome: OutcomeEmailInUse}, nil
		}
		return UpdateResult{}, fmt.Errorf("update account: %w", err)
	}

	account, err := s.Store.Accounts().GetByID(ctx, in.ID)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Account: &account}, nil
}

func (s *AccountService) Delete(ctx context.Context, id idx.ID) error {
	return s.Store.Accounts().Delete(ctx, id)
}

func (s *AccountService) Products(ctx context.Context, accountID idx.ID) ([]domain.Product, error) {
	return s.Store.Products().ListByAccount(ctx, accountID)
}

func (s *AccountService) AssignProduct(ctx context.Context, accountID, productID idx.ID) error {
	if _, err := s.Store.Accounts().GetByID(ctx, accountID); err != nil {
		return err
	}
	if _, err := s.Store.Products().GetByID(ctx, productID); err != nil {
		return err
	}
	return s.Store.Products().Assign(ctx, accountID, productID)
}

func (s *AccountService) UnassignProduct(ctx context.Context, accountID, productID idx.ID) error {
	return s.Store.Products().Unassign(ctx, accountID, productID)
}
