package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/totegamma/cardfeed/internal/domain"
)

// CollectionLinkProjector materializes card memberships.
// A link is only created once both its collection and its published card
// resolve locally; unresolved links are skipped and never retried here.
type CollectionLinkProjector struct {
	links      CollectionLinkRepository
	cards      CardRepository
	resolution *ResolutionService
	now        func() time.Time
}

func NewCollectionLinkProjector(
	links CollectionLinkRepository,
	cards CardRepository,
	resolution *ResolutionService,
) *CollectionLinkProjector {
	return &CollectionLinkProjector{
		links:      links,
		cards:      cards,
		resolution: resolution,
		now:        time.Now,
	}
}

func (p *CollectionLinkProjector) HandleCreate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	uri := event.URI.String()

	existing, err := p.resolution.Resolve(ctx, domain.ResourceKindCollectionLink, uri)
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve collection link", err)
	}
	if existing != nil {
		return p.HandleUpdate(ctx, event)
	}

	var record collectionLinkRecord
	if err := decodeRecord(event.Record, &record); err != nil {
		return domain.Skip(fmt.Sprintf("undecodable collection link record: %v", err)), nil
	}

	collectionID, cardID, outcome, err := p.resolveTargets(ctx, record)
	if collectionID == "" {
		return outcome, err
	}

	now := p.now()
	link := domain.CollectionLink{
		ID:              localID(domain.ResourceKindCollectionLink, uri),
		CollectionID:    collectionID,
		CardID:          cardID,
		AddedBy:         record.AddedBy,
		AddedAt:         parseTimestamp(record.AddedAt, parseTimestamp(record.CreatedAt, now)),
		PublishedRecord: publishedRecord(event),
	}
	if link.AddedBy == "" {
		link.AddedBy = event.Authority
	}

	if err := p.links.Save(ctx, link); err != nil {
		return domain.Outcome{}, domain.Infra("save collection link", err)
	}
	if err := p.resolution.StoreMapping(ctx, domain.ResourceKindCollectionLink, uri, link.ID); err != nil {
		return domain.Outcome{}, domain.Infra("store collection link mapping", err)
	}

	return domain.Applied(), nil
}

func (p *CollectionLinkProjector) HandleUpdate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	id, err := p.resolution.Resolve(ctx, domain.ResourceKindCollectionLink, event.URI.String())
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve collection link", err)
	}
	if id == nil {
		return domain.Skip("collection link not found locally"), nil
	}

	link, err := p.links.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Skip("collection link mapping points at a missing link"), nil
		}
		return domain.Outcome{}, domain.Infra("find collection link", err)
	}

	var record collectionLinkRecord
	if err := decodeRecord(event.Record, &record); err != nil {
		return domain.Skip(fmt.Sprintf("undecodable collection link record: %v", err)), nil
	}

	collectionID, cardID, outcome, err := p.resolveTargets(ctx, record)
	if collectionID == "" {
		return outcome, err
	}

	link.CollectionID = collectionID
	link.CardID = cardID
	if record.AddedBy != "" {
		link.AddedBy = record.AddedBy
	}
	link.PublishedRecord = publishedRecord(event)

	if err := p.links.Save(ctx, *link); err != nil {
		return domain.Outcome{}, domain.Infra("save collection link", err)
	}

	return domain.Applied(), nil
}

func (p *CollectionLinkProjector) HandleDelete(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	uri := event.URI.String()

	id, err := p.resolution.Resolve(ctx, domain.ResourceKindCollectionLink, uri)
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve collection link", err)
	}
	if id == nil {
		return domain.Skip("collection link already absent"), nil
	}

	if err := p.links.Delete(ctx, *id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Outcome{}, domain.Infra("delete collection link", err)
	}
	if err := p.resolution.RemoveMapping(ctx, domain.ResourceKindCollectionLink, uri); err != nil {
		return domain.Outcome{}, domain.Infra("remove collection link mapping", err)
	}

	return domain.Applied(), nil
}

// resolveTargets finds the local collection and card a link points at.
// Empty ids with a nil error mean the link is skipped with the returned outcome.
func (p *CollectionLinkProjector) resolveTargets(ctx context.Context, record collectionLinkRecord) (string, string, domain.Outcome, error) {
	collectionID, err := p.resolution.Resolve(ctx, domain.ResourceKindCollection, record.Collection.URI)
	if err != nil {
		return "", "", domain.Outcome{}, domain.Infra("resolve link collection", err)
	}
	if collectionID == nil {
		return "", "", domain.Skip("collection " + record.Collection.URI + " not resolved"), nil
	}

	cardID, err := p.resolution.Resolve(ctx, domain.ResourceKindCard, record.Card.URI)
	if err != nil {
		return "", "", domain.Outcome{}, domain.Infra("resolve link card", err)
	}
	if cardID == nil {
		return "", "", domain.Skip("card " + record.Card.URI + " not resolved"), nil
	}

	card, err := p.cards.FindByID(ctx, *cardID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", domain.Skip("card " + record.Card.URI + " missing locally"), nil
		}
		return "", "", domain.Outcome{}, domain.Infra("find link card", err)
	}
	if card.PublishedRecord == nil {
		return "", "", domain.Skip("card " + record.Card.URI + " is not published"), nil
	}

	return *collectionID, *cardID, domain.Outcome{}, nil
}
