package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/totegamma/cardfeed/internal/domain"
)

type CardProjector struct {
	cards      CardRepository
	resolution *ResolutionService
	now        func() time.Time
}

func NewCardProjector(cards CardRepository, resolution *ResolutionService) *CardProjector {
	return &CardProjector{
		cards:      cards,
		resolution: resolution,
		now:        time.Now,
	}
}

func (p *CardProjector) HandleCreate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	uri := event.URI.String()

	existing, err := p.resolution.Resolve(ctx, domain.ResourceKindCard, uri)
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve card", err)
	}
	if existing != nil {
		return p.HandleUpdate(ctx, event)
	}

	var record cardRecord
	if err := decodeRecord(event.Record, &record); err != nil {
		return domain.Skip(fmt.Sprintf("undecodable card record: %v", err)), nil
	}

	now := p.now()
	card := domain.Card{
		ID:        localID(domain.ResourceKindCard, uri),
		Author:    event.Authority,
		CreatedAt: parseTimestamp(record.CreatedAt, now),
		UpdatedAt: now,
	}
	if reason := applyCardContent(&card, record); reason != "" {
		return domain.Skip(reason), nil
	}
	if err := p.resolveParent(ctx, &card, record); err != nil {
		return domain.Outcome{}, err
	}
	card.PublishedRecord = publishedRecord(event)

	if err := p.cards.Save(ctx, card); err != nil {
		return domain.Outcome{}, domain.Infra("save card", err)
	}
	if err := p.resolution.StoreMapping(ctx, domain.ResourceKindCard, uri, card.ID); err != nil {
		return domain.Outcome{}, domain.Infra("store card mapping", err)
	}

	return domain.Applied(), nil
}

func (p *CardProjector) HandleUpdate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	card, outcome, err := p.load(ctx, event)
	if card == nil {
		return outcome, err
	}

	var record cardRecord
	if err := decodeRecord(event.Record, &record); err != nil {
		return domain.Skip(fmt.Sprintf("undecodable card record: %v", err)), nil
	}

	if reason := applyCardContent(card, record); reason != "" {
		return domain.Skip(reason), nil
	}
	if err := p.resolveParent(ctx, card, record); err != nil {
		return domain.Outcome{}, err
	}
	card.PublishedRecord = publishedRecord(event)
	card.UpdatedAt = p.now()

	if err := p.cards.Save(ctx, *card); err != nil {
		return domain.Outcome{}, domain.Infra("save card", err)
	}

	return domain.Applied(), nil
}

func (p *CardProjector) HandleDelete(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	uri := event.URI.String()

	id, err := p.resolution.Resolve(ctx, domain.ResourceKindCard, uri)
	if err != nil {
		return domain.Outcome{}, domain.Infra("resolve card", err)
	}
	if id == nil {
		return domain.Skip("card already absent"), nil
	}

	if err := p.cards.Delete(ctx, *id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Outcome{}, domain.Infra("delete card", err)
	}
	if err := p.resolution.RemoveMapping(ctx, domain.ResourceKindCard, uri); err != nil {
		return domain.Outcome{}, domain.Infra("remove card mapping", err)
	}

	return domain.Applied(), nil
}

// load resolves and fetches the card an update refers to.
// A nil card with a nil error means the update is skipped.
func (p *CardProjector) load(ctx context.Context, event domain.FirehoseEvent) (*domain.Card, domain.Outcome, error) {
	id, err := p.resolution.Resolve(ctx, domain.ResourceKindCard, event.URI.String())
	if err != nil {
		return nil, domain.Outcome{}, domain.Infra("resolve card", err)
	}
	if id == nil {
		return nil, domain.Skip("card not found locally"), nil
	}

	card, err := p.cards.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Skip("card mapping points at a missing card"), nil
		}
		return nil, domain.Outcome{}, domain.Infra("find card", err)
	}
	return card, domain.Outcome{}, nil
}

func (p *CardProjector) resolveParent(ctx context.Context, card *domain.Card, record cardRecord) error {
	card.ParentCardID = nil
	if record.ParentCard == nil || record.ParentCard.URI == "" {
		return nil
	}
	parentID, err := p.resolution.Resolve(ctx, domain.ResourceKindCard, record.ParentCard.URI)
	if err != nil {
		return domain.Infra("resolve parent card", err)
	}
	card.ParentCardID = parentID
	return nil
}

// applyCardContent replaces the card content in place.
// It returns a non-empty reason when the record has to be skipped.
func applyCardContent(card *domain.Card, record cardRecord) string {
	switch domain.ContentKind(record.Type) {
	case domain.ContentKindURL:
		var content urlContent
		if err := json.Unmarshal(record.Content, &content); err != nil {
			return fmt.Sprintf("invalid url content: %v", err)
		}
		if content.URL == "" {
			content.URL = record.URL
		}
		if content.URL == "" {
			return "url card without url"
		}
		card.Kind = domain.ContentKindURL
		card.URL = content.URL
		card.Metadata = content.Metadata
		card.Text = ""
	case domain.ContentKindNote:
		var content noteContent
		if err := json.Unmarshal(record.Content, &content); err != nil {
			return fmt.Sprintf("invalid note content: %v", err)
		}
		if content.Text == "" {
			return "note card without text"
		}
		card.Kind = domain.ContentKindNote
		card.Text = content.Text
		card.URL = record.URL
		card.Metadata = nil
	default:
		return fmt.Sprintf("unsupported card type %q", record.Type)
	}
	return ""
}
