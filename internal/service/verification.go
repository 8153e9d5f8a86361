package service

import (
	"context"
	"fmt"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/cryptox"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/slogx"
)

// Issuance caps and lifetimes. The issue cap is counted per
// (address, type); password resets additionally carry a daily cap
// since a reset code is a full account takeover primitive.
const (
	IssueCap    = 5
	IssueWindow = 15 * time.Minute

	ResetCap    = 3
	ResetWindow = 24 * time.Hour

	ShortCodeTTL = 2 * time.Minute
	ResetCodeTTL = 15 * time.Minute
)

// VerificationService issues and consumes single-use codes. Rows are
// the source of truth: caps are counted in the database and consumption
// is a conditional update, so concurrent requests cannot double-spend.
type VerificationService struct {
	Store  store.Store
	Mailer Mailer
}

// SendResult reports the outcome of a send request.
type SendResult struct {
	Outcome string
}

// Send issues a code of the given type to email and delivers it. The
// DEMO_REQUEST type is special: no code is issued, the prospect is
// recorded and sales is notified instead.
func (s *VerificationService) Send(ctx context.Context, email string, typ domain.CodeType) (SendResult, error) {
	if typ == domain.CodeDemoRequest {
		return s.recordDemoRequest(ctx, email)
	}

	now := time.Now().UTC()

	recent, err := s.Store.VerificationCodes().CountTypeSince(ctx, email, typ, now.Add(-IssueWindow))
	if err != nil {
		return SendResult{}, fmt.Errorf("count recent codes: %w", err)
	}
	if recent >= IssueCap {
		return SendResult{Outcome: OutcomeTooManyRequests}, nil
	}

	if typ == domain.CodePasswordReset {
		resets, err := s.Store.VerificationCodes().CountTypeSince(ctx, email, typ, now.Add(-ResetWindow))
		if err != nil {
			return SendResult{}, fmt.Errorf("count reset codes: %w", err)
		}
		if resets >= ResetCap {
			return SendResult{Outcome: OutcomeTooManyRequests}, nil
		}
	}

	if err := s.issue(ctx, email, typ, now); err != nil {
		return SendResult{}, err
	}

	return SendResult{Outcome: OutcomeVerificationCodeSent}, nil
}

// issue generates, persists and delivers one code, revoking any older
// unused codes of the same type first. The row is written before the
// mail goes out; if delivery fails the code stays and expires on its
// own.
func (s *VerificationService) issue(ctx context.Context, email string, typ domain.CodeType, now time.Time) error {
	code, err := cryptox.GenerateCode()
	if err != nil {
		return err
	}

	ttl := ShortCodeTTL
	if typ == domain.CodePasswordReset {
		ttl = ResetCodeTTL
	}

	codes := s.Store.VerificationCodes()
	if err := codes.InvalidateUnused(ctx, email, typ); err != nil {
		return fmt.Errorf("invalidate stale codes: %w", err)
	}

	err = codes.Create(ctx, domain.VerificationCode{
		ID:        idx.New(),
		Email:     email,
		Code:      code,
		Type:      typ,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("persist code: %w", err)
	}

	if err := s.Mailer.SendVerificationCode(ctx, email, code, typ); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}

	slogx.FromContext(ctx).Info("verification code issued",
		"email", email, "type", string(typ))
	return nil
}

// Consume redeems a code. False means no live matching code existed,
// with no distinction between wrong, expired and already used.
func (s *VerificationService) Consume(ctx context.Context, email, code string, typ domain.CodeType) (bool, error) {
	return s.Store.VerificationCodes().Consume(ctx, email, code, typ, time.Now().UTC())
}

func (s *VerificationService) recordDemoRequest(ctx context.Context, email string) (SendResult, error) {
	now := time.Now().UTC()

	err := s.Store.DemoRequests().Create(ctx, domain.DemoRequest{
		ID:        idx.New(),
		Email:     email,
		Status:    domain.DemoPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("record demo request: %w", err)
	}

	if err := s.Mailer.SendDemoRequestNotice(ctx, email); err != nil {
		return SendResult{}, fmt.Errorf("notify sales: %w", err)
	}

	return SendResult{Outcome: OutcomeDemoRequest}, nil
}
