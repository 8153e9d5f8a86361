package service

import (
	"context"
	"time"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
)

type WatchedInfoService struct {
	Store store.Store
}

type WatchedInfoInput struct {
	Type      string
	Value     string
	AccountID idx.ID
	ProductID idx.ID
	IsActive  bool
}

func (s *WatchedInfoService) Create(ctx context.Context, in WatchedInfoInput) (domain.WatchedInfo, error) {
	now := time.Now().UTC()
	w := domain.WatchedInfo{
		ID:        idx.New(),
		Type:      in.Type,
		Value:     in.Value,
		AccountID: in.AccountID,
		ProductID: in.ProductID,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.WatchedInfo().Create(ctx, w); err != nil {
		return domain.WatchedInfo{}, err
	}
	return w, nil
}

func (s *WatchedInfoService) Get(ctx context.Context, id idx.ID) (domain.WatchedInfo, error) {
	return s.Store.WatchedInfo().GetByID(ctx, id)
}

func (s *WatchedInfoService) List(ctx context.Context) ([]domain.WatchedInfo, error) {
	return s.Store.WatchedInfo().List(ctx)
}

func (s *WatchedInfoService) ListByAccount(ctx context.Context, accountID idx.ID) ([]domain.WatchedInfo, error) {
	return s.Store.WatchedInfo().ListByAccount(ctx, accountID)
}

func (s *WatchedInfoService) Update(ctx context.Context, id idx.ID, in WatchedInfoInput) (domain.WatchedInfo, error) {
	current, err := s.Store.WatchedInfo().GetByID(ctx, id)
	if err != nil {
		return domain.WatchedInfo{}, err
	}

	current.Type = in.Type
	current.Value = in.Value
	current.ProductID = in.ProductID
	current.IsActive = in.IsActive

	if err := s.Store.WatchedInfo().Update(ctx, current); err != nil {
		return domain.WatchedInfo{}, err
	}
	return s.Store.WatchedInfo().GetByID(ctx, id)
}

func (s *WatchedInfoService) Delete(ctx context.Context, id idx.ID) error {
	return s.Store.WatchedInfo().Delete(ctx, id)
}
