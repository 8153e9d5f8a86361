package service

import (
	"context"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
)

// DemoRequestService is the admin view over recorded demo requests.
// Creation happens through the verification flow, never here.
type DemoRequestService struct {
	Store store.Store
}

func (s *DemoRequestService) List(ctx context.Context) ([]domain.DemoRequest, error) {
	return s.Store.DemoRequests().List(ctx)
}

func (s *DemoRequestService) UpdateStatus(ctx context.Context, id idx.ID, status domain.DemoRequestStatus) error {
	return s.Store.DemoRequests().UpdateStatus(ctx, id, status)
}
