package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/totegamma/cardfeed/internal/domain"
)

type CollectionProjector struct {
	collections CollectionRepository
	resolution  *ResolutionService
	now         func() time.Time
}

func NewCollectionProjector(collections CollectionRepository, resolution *ResolutionService) *CollectionProjector {
	return &CollectionProjector{
		collections: collections,
		resolution:  resolution,
		now:         time.Now,
	}
}

func (p *CollectionProjector) HandleCreate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	uri := event.URI.String()

	existing, err := p.resolution.Resolve(ctx, domain.ResourceKindCollection, uri)
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve collection", err)
	}
	if existing != nil {
		return p.HandleUpdate(ctx, event)
	}

	var record collectionRecord
	if err := decodeRecord(event.Record, &record); err != nil {
		return domain.Skip(fmt.Sprintf("undecodable collection record: %v", err)), nil
	}

	now := p.now()
	collection := domain.Collection{
		ID:        localID(domain.ResourceKindCollection, uri),
		Author:    event.Authority,
		CreatedAt: parseTimestamp(record.CreatedAt, now),
	}
	applyCollectionRecord(&collection, record)
	collection.PublishedRecord = publishedRecord(event)
	collection.UpdatedAt = now

	if err := p.collections.Save(ctx, collection); err != nil {
		return domain.Outcome{}, domain.Infra("save collection", err)
	}
	if err := p.resolution.StoreMapping(ctx, domain.ResourceKindCollection, uri, collection.ID); err != nil {
		return domain.Outcome{}, domain.Infra("store collection mapping", err)
	}

	return domain.Applied(), nil
}

func (p *CollectionProjector) HandleUpdate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	id, err := p.resolution.Resolve(ctx, domain.ResourceKindCollection, event.URI.String())
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve collection", err)
	}
	if id == nil {
		return domain.Skip("collection not found locally"), nil
	}

	collection, err := p.collections.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Skip("collection mapping points at a missing collection"), nil
		}
		return domain.Outcome{}, domain.Infra("find collection", err)
	}

	var record collectionRecord
	if err := decodeRecord(event.Record, &record); err != nil {
		return domain.Skip(fmt.Sprintf("undecodable collection record: %v", err)), nil
	}

	applyCollectionRecord(collection, record)
	collection.PublishedRecord = publishedRecord(event)
	collection.UpdatedAt = p.now()

	if err := p.collections.Save(ctx, *collection); err != nil {
		return domain.Outcome{}, domain.Infra("save collection", err)
	}

	return domain.Applied(), nil
}

func (p *CollectionProjector) HandleDelete(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	uri := event.URI.String()

	id, err := p.resolution.Resolve(ctx, domain.ResourceKindCollection, uri)
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve collection", err)
	}
	if id == nil {
		return domain.Skip("collection already absent"), nil
	}

	if err := p.collections.Delete(ctx, *id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Outcome{}, domain.Infra("delete collection", err)
	}
	if err := p.resolution.RemoveMapping(ctx, domain.ResourceKindCollection, uri); err != nil {
		return domain.Outcome{}, domain.Infra("remove collection mapping", err)
	}

	return domain.Applied(), nil
}

func applyCollectionRecord(collection *domain.Collection, record collectionRecord) {
	collection.Name = record.Name
	collection.Description = record.Description
	switch domain.AccessType(record.AccessType) {
	case domain.AccessTypeOpen:
		collection.AccessType = domain.AccessTypeOpen
	default:
		collection.AccessType = domain.AccessTypeClosed
	}
}
