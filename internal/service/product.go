package service

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
)

type ProductService struct {
	Store store.Store
}

type ProductInput struct {
	Name        string
	Description string
	Features    []string
	IsActive    bool
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	now := time.Now().UTC()
	p := domain.Product{
		ID:          idx.New(),
		Name:        in.Name,
		Description: in.Description,
		Features:    in.Features,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Products().Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id idx.ID) (domain.Product, error) {
	return s.Store.Products().GetByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Store.Products().List(ctx)
}

func (s *ProductService) Update(ctx context.Context, id idx.ID, in ProductInput) (domain.Product, error) {
	p := domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Features:    in.Features,
		IsActive:    in.IsActive,
	}
	if err := s.Store.Products().Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.Store.Products().GetByID(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id idx.ID) error {
	return s.Store.Products().Delete(ctx, id)
}

// Users lists the accounts assigned to a product.
func (s *ProductService) Users(ctx context.Context, productID idx.ID) ([]domain.Account, error) {
	if _, err := s.Store.Products().GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.Store.Products().ListAccounts(ctx, productID)
}
