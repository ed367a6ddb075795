package usecase

import (
	"context"

	"github.com/totegamma/cardfeed/internal/domain"
)

// ResolutionService maps network records to locally tracked entities.
// A nil id means the record has not been seen yet, which is not an error.
type ResolutionService struct {
	repo ResolutionRepository
}

func NewResolutionService(repo ResolutionRepository) *ResolutionService {
	return &ResolutionService{repo: repo}
}

func (s *ResolutionService) Resolve(ctx context.Context, kind domain.ResourceKind, uri string) (*string, error) {
	return s.repo.Resolve(ctx, kind, uri)
}

func (s *ResolutionService) StoreMapping(ctx context.Context, kind domain.ResourceKind, uri, localID string) error {
	return s.repo.Store(ctx, kind, uri, localID)
}

func (s *ResolutionService) RemoveMapping(ctx context.Context, kind domain.ResourceKind, uri string) error {
	return s.repo.Remove(ctx, kind, uri)
}
