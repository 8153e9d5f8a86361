package store

import (
	"context"
	"errors"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement
// this. Sub-repositories keep concerns tidy and individually mockable.
type Store interface {
	Accounts() Accounts
	VerificationCodes() VerificationCodes
	Products() Products
	Contacts() Contacts
	WatchedInfo() WatchedInfo
	DemoRequests() DemoRequests

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A non-nil error from fn
	// rolls the transaction back; nil commits it.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store with explicit Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// LockoutPolicy parameterises the failed-login counter. The driver
// applies it in a single atomic statement so concurrent failures can't
// race past the cap.
type LockoutPolicy struct {
	// MaxAttempts is the failure count that triggers a lock.
	MaxAttempts int
	// LockDuration is how long the account stays locked.
	LockDuration time.Duration
	// ResetAfter is the quiet period after which the counter restarts
	// from scratch instead of accumulating.
	ResetAfter time.Duration
}

type Accounts interface {
	GetByID(ctx context.Context, id idx.ID) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// Create inserts a new account (id provided by the app via ULID).
	// A duplicate email returns ErrAlreadyExists.
	Create(ctx context.Context, a domain.Account) error

	// List returns accounts ordered newest first.
	List(ctx context.Context) ([]domain.Account, error)

	// UpdateProfile mutates email, name and role, bumping updated_at.
	UpdateProfile(ctx context.Context, id idx.ID, email, name string, role string) error

	UpdatePasswordHash(ctx context.Context, id idx.ID, hash string) error

	// SetTwoFactor toggles the email second factor and optionally sets a
	// TOTP secret (nil clears it).
	SetTwoFactor(ctx context.Context, id idx.ID, enabled bool, totpSecret *string) error

	// Delete cascades to product assignments and watched info.
	Delete(ctx context.Context, id idx.ID) error

	// RecordFailedLogin bumps the failure counter atomically: stale
	// counters restart at 1, fresh ones increment, and crossing
	// MaxAttempts sets locked_until. Returns the post-update account.
	RecordFailedLogin(ctx context.Context, id idx.ID, now time.Time, p LockoutPolicy) (domain.Account, error)

	// ClearLockout zeroes the failure counter and lift any lock.
	ClearLockout(ctx context.Context, id idx.ID) error
}

type VerificationCodes interface {
	Create(ctx context.Context, c domain.VerificationCode) error

	// CountTypeSince counts codes of one type issued to email at or after t.
	CountTypeSince(ctx context.Context, email string, typ domain.CodeType, t time.Time) (int, error)

	// InvalidateUnused marks all unused codes for (email, type) as used,
	// so issuing a fresh code revokes its predecessors.
	InvalidateUnused(ctx context.Context, email string, typ domain.CodeType) error

	// Consume atomically marks the matching unexpired, unused code as
	// used. Exactly one of any set of concurrent callers gets true.
	Consume(ctx context.Context, email, code string, typ domain.CodeType, now time.Time) (bool, error)

	// DeleteExpired removes codes that expired before t. Housekeeping.
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}

type Products interface {
	GetByID(ctx context.Context, id idx.ID) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) error
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id idx.ID) error

	// Assign links an account to a product. Assigning twice is a no-op.
	Assign(ctx context.Context, accountID, productID idx.ID) error
	Unassign(ctx context.Context, accountID, productID idx.ID) error

	// ListByAccount returns the products assigned to an account.
	ListByAccount(ctx context.Context, accountID idx.ID) ([]domain.Product, error)

	// ListAccounts returns the accounts assigned to a product.
	ListAccounts(ctx context.Context, productID idx.ID) ([]domain.Account, error)
}

type Contacts interface {
	Create(ctx context.Context, c domain.Contact) error
	GetByID(ctx context.Context, id idx.ID) (domain.Contact, error)
	List(ctx context.Context) ([]domain.Contact, error)
	UpdateStatus(ctx context.Context, id idx.ID, status domain.ContactStatus) error
	Delete(ctx context.Context, id idx.ID) error
}

type WatchedInfo interface {
	Create(ctx context.Context, w domain.WatchedInfo) error
	GetByID(ctx context.Context, id idx.ID) (domain.WatchedInfo, error)
	List(ctx context.Context) ([]domain.WatchedInfo, error)
	ListByAccount(ctx context.Context, accountID idx.ID) ([]domain.WatchedInfo, error)
	Update(ctx context.Context, w domain.WatchedInfo) error
	Delete(ctx context.Context, id idx.ID) error
}

type DemoRequests interface {
	Create(ctx context.Context, d domain.DemoRequest) error
	GetByEmail(ctx context.Context, email string) (domain.DemoRequest, error)
	List(ctx context.Context) ([]domain.DemoRequest, error)
	UpdateStatus(ctx context.Context, id idx.ID, status domain.DemoRequestStatus) error
}
