package domain

import (
	"time"

	"github.com/perseusdefend/perseus/pkg/idx"
)

// CodeType partitions verification codes by purpose. Codes of one type
// never satisfy a consumption of another.
type CodeType string

const (
	CodeEmailVerify   CodeType = "EMAIL_VERIFY"
	CodePasswordReset CodeType = "PASSWORD_RESET"
	CodeTwoFactor     CodeType = "TWO_FACTOR"
	CodePinVerify     CodeType = "PIN_VERIFY"
	CodeDemoRequest   CodeType = "DEMO_REQUEST"
)

func (t CodeType) Valid() bool {
	switch t {
	case CodeEmailVerify, CodePasswordReset, CodeTwoFactor, CodePinVerify, CodeDemoRequest:
		return true
	}
	return false
}

type VerificationCode struct {
	ID        idx.ID
	Email     string
	Code      string // 6 chars, digits and upper-case letters
	Type      CodeType
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
