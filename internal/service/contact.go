package service

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/slogx"
)

type ContactService struct {
	Store store.Store
}

type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	CompanyName string
	PhoneNumber string
	Message     string
}

// Submit records a contact-form message. This is the only public write
// in the system, so it stays deliberately dumb: no dedup, no outcome
// variants.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (domain.Contact, error) {
	now := time.Now().UTC()
	c := domain.Contact{
		ID:          idx.New(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		CompanyName: in.CompanyName,
		PhoneNumber: in.PhoneNumber,
		Message:     in.Message,
		Status:      domain.ContactNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Contacts().Create(ctx, c); err != nil {
		return domain.Contact{}, err
	}

	slogx.FromContext(ctx).Info("contact submitted", "contact_id", c.ID)
	return c, nil
}

func (s *ContactService) Get(ctx context.Context, id idx.ID) (domain.Contact, error) {
	return s.Store.Contacts().GetByID(ctx, id)
}

func (s *ContactService) List(ctx context.Context) ([]domain.Contact, error) {
	return s.Store.Contacts().List(ctx)
}

func (s *ContactService) UpdateStatus(ctx context.Context, id idx.ID, status domain.ContactStatus) (domain.Contact, error) {
	if err := s.Store.Contacts().UpdateStatus(ctx, id, status); err != nil {
		return domain.Contact{}, err
	}
	return s.Store.Contacts().GetByID(ctx, id)
}

func (s *ContactService) Delete(ctx context.Context, id idx.ID) error {
	return s.Store.Contacts().Delete(ctx, id)
}
