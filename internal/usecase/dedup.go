package usecase

import (
	"context"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
)

type DeduplicationService struct {
	ledger      LedgerRepository
	resolution  *ResolutionService
	collections domain.CollectionConfig
}

func NewDeduplicationService(
	ledger LedgerRepository,
	resolution *ResolutionService,
	collections domain.CollectionConfig,
) *DeduplicationService {
	return &DeduplicationService{
		ledger:      ledger,
		resolution:  resolution,
		collections: collections,
	}
}

// HasBeenApplied reports whether the write was already projected.
// Creates and updates are matched by (uri, cid) in the ledger. Deletes carry
// no cid, so a delete counts as applied once the entity no longer resolves.
func (s *DeduplicationService) HasBeenApplied(ctx context.Context, uri cardfeed.ATURI, cid *string, op domain.EventType) (bool, error) {
	if op == domain.EventTypeDelete {
		kind, ok := s.collections.KindOf(uri.Collection)
		if !ok {
			return false, nil
		}
		id, err := s.resolution.Resolve(ctx, kind, uri.String())
		if err != nil {
			return false, &domain.DuplicationCheckError{URI: uri.String(), Err: err}
		}
		return id == nil, nil
	}

	if cid == nil || *cid == "" {
		return false, nil
	}

	exists, err := s.ledger.Exists(ctx, uri.String(), *cid)
	if err != nil {
		return false, &domain.DuplicationCheckError{URI: uri.String(), Err: err}
	}
	return exists, nil
}
