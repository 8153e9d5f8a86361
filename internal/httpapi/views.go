package httpapi

import (
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// View structs shape domain records for the wire. Password hashes and
// TOTP secrets never leave the process.

type accountView struct {
	ID               idx.ID      `json:"id"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	Role             tokenx.Role `json:"role"`
	TwoFactorEnabled bool        `json:"twoFactorEnabled"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func newAccountView(a *domain.Account) accountView {
	return accountView{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Role:             a.Role,
		TwoFactorEnabled: a.TwoFactorEnabled,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func newAccountViews(accounts []domain.Account) []accountView {
	out := make([]accountView, 0, len(accounts))
	for i := range accounts {
		out = append(out, newAccountView(&accounts[i]))
	}
	return out
}

type productView struct {
	ID          idx.ID    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newProductView(p *domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Features:    p.Features,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for i := range products {
		out = append(out, newProductView(&products[i]))
	}
	return out
}

type contactView struct {
	ID          idx.ID               `json:"id"`
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Email       string               `json:"email"`
	CompanyName string               `json:"companyName,omitempty"`
	PhoneNumber string               `json:"phoneNumber,omitempty"`
	Message     string               `json:"message"`
	Status      domain.ContactStatus `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func newContactView(c *domain.Contact) contactView {
	return contactView{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		CompanyName: c.CompanyName,
		PhoneNumber: c.PhoneNumber,
		Message:     c.Message,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func newContactViews(contacts []domain.Contact) []contactView {
	out := make([]contactView, 0, len(contacts))
	for i := range contacts {
		out = append(out, newContactView(&contacts[i]))
	}
	return out
}

type watchedInfoView struct {
	ID        idx.ID    `json:"id"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	AccountID idx.ID    `json:"userId"`
	ProductID idx.ID    `json:"productId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newWatchedInfoView(w *domain.WatchedInfo) watchedInfoView {
	return watchedInfoView{
		ID:        w.ID,
		Type:      w.Type,
		Value:     w.Value,
		AccountID: w.AccountID,
		ProductID: w.ProductID,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func newWatchedInfoViews(items []domain.WatchedInfo) []watchedInfoView {
	out := make([]watchedInfoView, 0, len(items))
	for i := range items {
		out = append(out, newWatchedInfoView(&items[i]))
	}
	return out
}

type demoRequestView struct {
	ID        idx.ID                   `json:"id"`
	Email     string                   `json:"email"`
	Status    domain.DemoRequestStatus `json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

func newDemoRequestViews(items []domain.DemoRequest) []demoRequestView {
	out := make([]demoRequestView, 0, len(items))
	for _, d := range items {
		out = append(out, demoRequestView{
			ID:        d.ID,
			Email:     d.Email,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return out
}
