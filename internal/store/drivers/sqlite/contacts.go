package sqlite

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
)

type contactsRepo struct {
	db dbtx
}

const contactColumns = `id, first_name, last_name, email, company_name, phone_number,
	message, status, created_at, updated_at`

func scanContact(row rowScanner) (domain.Contact, error) {
	var (
		c      domain.Contact
		status string
	)

	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.CompanyName,
		&c.PhoneNumber, &c.Message, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Contact{}, err
	}

	c.Status = domain.ContactStatus(status)
	return c, nil
}

func (r *contactsRepo) Create(ctx context.Context, c domain.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, first_name, last_name, email, company_name,
			phone_number, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.FirstName, c.LastName, c.Email, c.CompanyName,
		c.PhoneNumber, c.Message, string(c.Status), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *contactsRepo) GetByID(ctx context.Context, id idx.ID) (domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id.String())

	c, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, mapNotFound(err)
	}
	return c, nil
}

func (r *contactsRepo) List(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *contactsRepo) UpdateStatus(ctx context.Context, id idx.ID, status domain.ContactStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *contactsRepo) Delete(ctx context.Context, id idx.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}
