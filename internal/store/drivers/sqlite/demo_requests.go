package sqlite

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
)

type demoRequestsRepo struct {
	db dbtx
}

const demoRequestColumns = `id, email, status, created_at, updated_at`

func scanDemoRequest(row rowScanner) (domain.DemoRequest, error) {
	var (
		d      domain.DemoRequest
		status string
	)

	err := row.Scan(&d.ID, &d.Email, &status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.DemoRequest{}, err
	}

	d.Status = domain.DemoRequestStatus(status)
	return d, nil
}

func (r *demoRequestsRepo) Create(ctx context.Context, d domain.DemoRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO demo_requests (id, email, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID.String(), d.Email, string(d.Status), d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *demoRequestsRepo) GetByEmail(ctx context.Context, email string) (domain.DemoRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+demoRequestColumns+` FROM demo_requests
		WHERE email = ? ORDER BY id DESC LIMIT 1`,
		email)

	d, err := scanDemoRequest(row)
	if err != nil {
		return domain.DemoRequest{}, mapNotFound(err)
	}
	return d, nil
}

func (r *demoRequestsRepo) List(ctx context.Context) ([]domain.DemoRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+demoRequestColumns+` FROM demo_requests ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DemoRequest
	for rows.Next() {
		d, err := scanDemoRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *demoRequestsRepo) UpdateStatus(ctx context.Context, id idx.ID, status domain.DemoRequestStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE demo_requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}
