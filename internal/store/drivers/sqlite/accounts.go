package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, name, password_hash, role, failed_login_attempts,
	last_failed_login, locked_until, two_factor_enabled, totp_secret, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a          domain.Account
		role       string
		lastFailed sql.NullTime
		lockedTill sql.NullTime
		totpSecret sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &role, &a.FailedLoginAttempts,
		&lastFailed, &lockedTill, &a.TwoFactorEnabled, &totpSecret, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	a.Role = tokenx.Role(role)
	a.LastFailedLogin = mapNullTimePtr(lastFailed)
	a.LockedUntil = mapNullTimePtr(lockedTill)
	a.TOTPSecret = mapNullStringPtr(totpSecret)
	return a, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id idx.ID) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id.String())

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, role, failed_login_attempts,
			last_failed_login, locked_until, two_factor_enabled, totp_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Email, a.Name, a.PasswordHash, string(a.Role), a.FailedLoginAttempts,
		mapOptionalTime(a.LastFailedLogin), mapOptionalTime(a.LockedUntil),
		a.TwoFactorEnabled, mapOptionalString(a.TOTPSecret), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *accountsRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, id idx.ID, email, name string, role string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET email = ?, name = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		email, name, role, time.Now().UTC(), id.String())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id idx.ID, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) SetTwoFactor(ctx context.Context, id idx.ID, enabled bool, totpSecret *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET two_factor_enabled = ?, totp_secret = ?, updated_at = ?
		WHERE id = ?`,
		enabled, mapOptionalString(totpSecret), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) Delete(ctx context.Context, id idx.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RecordFailedLogin applies the lockout policy in one statement so
// concurrent failures serialise on the row instead of racing a
// read-modify-write cycle. A counter older than ResetAfter restarts at
// 1; crossing MaxAttempts sets locked_until.
func (r *accountsRepo) RecordFailedLogin(ctx context.Context, id idx.ID, now time.Time, p store.LockoutPolicy) (domain.Account, error) {
	staleCutoff := now.Add(-p.ResetAfter)
	lockUntil := now.Add(p.LockDuration)

	row := r.db.QueryRowContext(ctx, `
		UPDATE accounts SET
			failed_login_attempts = CASE
				WHEN last_failed_login IS NOT NULL AND last_failed_login > ?
					THEN failed_login_attempts + 1
				ELSE 1
			END,
			locked_until = CASE
				WHEN (CASE
					WHEN last_failed_login IS NOT NULL AND last_failed_login > ?
						THEN failed_login_attempts + 1
					ELSE 1
				END) >= ? THEN ?
				ELSE locked_until
			END,
			last_failed_login = ?,
			updated_at = ?
		WHERE id = ?
		RETURNING `+accountColumns,
		staleCutoff, staleCutoff, p.MaxAttempts, lockUntil, now, now, id.String())

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) ClearLockout(ctx context.Context, id idx.ID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET failed_login_attempts = 0, last_failed_login = NULL,
			locked_until = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps "no rows touched" onto ErrNotFound for updates and
// deletes keyed by primary key.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
