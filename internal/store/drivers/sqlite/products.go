package sqlite

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
)

type productsRepo struct {
	db dbtx
}

const productColumns = `id, name, description, features, is_active, created_at, updated_at`

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		features string
	)

	err := row.Scan(&p.ID, &p.Name, &p.Description, &features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}

	p.Features, err = decodeStrings(features)
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *productsRepo) GetByID(ctx context.Context, id idx.ID) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id.String())

	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, mapNotFound(err)
	}
	return p, nil
}

func (r *productsRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productsRepo) Create(ctx context.Context, p domain.Product) error {
	features, err := encodeStrings(p.Features)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, features, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Name, p.Description, features, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *productsRepo) Update(ctx context.Context, p domain.Product) error {
	features, err := encodeStrings(p.Features)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = ?, description = ?, features = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, features, p.IsActive, time.Now().UTC(), p.ID.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *productsRepo) Delete(ctx context.Context, id idx.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *productsRepo) Assign(ctx context.Context, accountID, productID idx.ID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_products (account_id, product_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id, product_id) DO NOTHING`,
		accountID.String(), productID.String(), time.Now().UTC())
	return err
}

func (r *productsRepo) Unassign(ctx context.Context, accountID, productID idx.ID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM account_products WHERE account_id = ? AND product_id = ?`,
		accountID.String(), productID.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *productsRepo) ListByAccount(ctx context.Context, accountID idx.ID) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.features, p.is_active, p.created_at, p.updated_at
		FROM products p
		JOIN account_products ap ON ap.product_id = p.id
		WHERE ap.account_id = ?
		ORDER BY p.id DESC`,
		accountID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productsRepo) ListAccounts(ctx context.Context, productID idx.ID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.email, a.name, a.password_hash, a.role, a.failed_login_attempts,
			a.last_failed_login, a.locked_until, a.two_factor_enabled, a.totp_secret,
			a.created_at, a.updated_at
		FROM accounts a
		JOIN account_products ap ON ap.account_id = a.id
		WHERE ap.product_id = ?
		ORDER BY a.id DESC`,
		productID.String())
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
