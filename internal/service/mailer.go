package service

import (
	"context"

	"github.com/perseusdefend/perseus/internal/domain"
)

// Mailer delivers verification codes and sales notices. Delivery
// failures are infrastructure errors and propagate to the caller; the
// persisted code stays in place and simply expires.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string, typ domain.CodeType) error
	SendDemoRequestNotice(ctx context.Context, prospectEmail string) error
}
