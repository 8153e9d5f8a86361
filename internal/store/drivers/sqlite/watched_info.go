package sqlite

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
)

type watchedInfoRepo struct {
	db dbtx
}

const watchedInfoColumns = `id, type, value, account_id, product_id, is_active, created_at, updated_at`

func scanWatchedInfo(row rowScanner) (domain.WatchedInfo, error) {
	var w domain.WatchedInfo
	err := row.Scan(&w.ID, &w.Type, &w.Value, &w.AccountID, &w.ProductID,
		&w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return domain.WatchedInfo{}, err
	}
	return w, nil
}

func (r *watchedInfoRepo) Create(ctx context.Context, w domain.WatchedInfo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watched_info (id, type, value, account_id, product_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.Type, w.Value, w.AccountID.String(), w.ProductID.String(),
		w.IsActive, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r *watchedInfoRepo) GetByID(ctx context.Context, id idx.ID) (domain.WatchedInfo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+watchedInfoColumns+` FROM watched_info WHERE id = ?`, id.String())

	w, err := scanWatchedInfo(row)
	if err != nil {
		return domain.WatchedInfo{}, mapNotFound(err)
	}
	return w, nil
}

func (r *watchedInfoRepo) List(ctx context.Context) ([]domain.WatchedInfo, error) {
	return r.list(ctx, `SELECT `+watchedInfoColumns+` FROM watched_info ORDER BY id DESC`)
}

func (r *watchedInfoRepo) ListByAccount(ctx context.Context, accountID idx.ID) ([]domain.WatchedInfo, error) {
	return r.list(ctx,
		`SELECT `+watchedInfoColumns+` FROM watched_info WHERE account_id = ? ORDER BY id DESC`,
		accountID.String())
}

func (r *watchedInfoRepo) list(ctx context.Context, query string, args ...any) ([]domain.WatchedInfo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WatchedInfo
	for rows.Next() {
		w, err := scanWatchedInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *watchedInfoRepo) Update(ctx context.Context, w domain.WatchedInfo) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE watched_info SET type = ?, value = ?, product_id = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		w.Type, w.Value, w.ProductID.String(), w.IsActive, time.Now().UTC(), w.ID.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *watchedInfoRepo) Delete(ctx context.Context, id idx.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watched_info WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}
