package sqlite

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
)

type verificationCodesRepo struct {
	db dbtx
}

func (r *verificationCodesRepo) Create(ctx context.Context, c domain.VerificationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (id, email, code, type, used, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Email, c.Code, string(c.Type), c.Used, c.ExpiresAt, c.CreatedAt)
	return err
}

func (r *verificationCodesRepo) CountTypeSince(ctx context.Context, email string, typ domain.CodeType, t time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM verification_codes
		WHERE email = ? AND type = ? AND created_at >= ?`,
		email, string(typ), t).Scan(&n)
	return n, err
}

func (r *verificationCodesRepo) InvalidateUnused(ctx context.Context, email string, typ domain.CodeType) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes SET used = 1
		WHERE email = ? AND type = ? AND used = 0`,
		email, string(typ))
	return err
}

// Consume flips used 0->1 on the newest matching live code. The
// conditional update makes consumption single-use: of any number of
// concurrent callers presenting the same code, exactly one sees true.
func (r *verificationCodesRepo) Consume(ctx context.Context, email, code string, typ domain.CodeType, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes SET used = 1
		WHERE id = (
			SELECT id FROM verification_codes
			WHERE email = ? AND code = ? AND type = ? AND used = 0 AND expires_at > ?
			ORDER BY created_at DESC
			LIMIT 1
		)`,
		email, code, string(typ), now)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *verificationCodesRepo) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < ?`, t)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
