package usecase

import (
	"context"
	"fmt"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
)

// Projector applies events of a single resource kind to the local store.
// Business level problems come back as a skipped Outcome; only
// infrastructure failures are returned as errors.
type Projector interface {
	HandleCreate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error)
	HandleUpdate(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error)
	HandleDelete(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error)
}

type Router struct {
	collections domain.CollectionConfig
	projectors  map[domain.ResourceKind]Projector
}

func NewRouter(
	collections domain.CollectionConfig,
	cards Projector,
	groups Projector,
	links Projector,
) *Router {
	return &Router{
		collections: collections,
		projectors: map[domain.ResourceKind]Projector{
			domain.ResourceKindCard:           cards,
			domain.ResourceKindCollection:     groups,
			domain.ResourceKindCollectionLink: links,
		},
	}
}

func (r *Router) KindOf(uri cardfeed.ATURI) (domain.ResourceKind, error) {
	kind, ok := r.collections.KindOf(uri.Collection)
	if !ok {
		return "", &domain.UnknownResourceKindError{Collection: uri.Collection}
	}
	return kind, nil
}

func (r *Router) Route(ctx context.Context, event domain.FirehoseEvent) (domain.Outcome, error) {
	kind, err := r.KindOf(event.URI)
	if err != nil {
		return domain.Outcome{}, err
	}

	if err := validateEvent(kind, event); err != nil {
		return domain.Outcome{}, err
	}

	projector, ok := r.projectors[kind]
	if !ok || projector == nil {
		return domain.Outcome{}, &domain.UnknownResourceKindError{Collection: event.URI.Collection}
	}

	switch event.Type {
	case domain.EventTypeCreate:
		return projector.HandleCreate(ctx, event)
	case domain.EventTypeUpdate:
		return projector.HandleUpdate(ctx, event)
	case domain.EventTypeDelete:
		return projector.HandleDelete(ctx, event)
	default:
		return domain.Outcome{}, &domain.ValidationError{Kind: kind, Field: "eventType", Reason: fmt.Sprintf("unsupported value %q", event.Type)}
	}
}

// validateEvent checks the minimal structure each kind needs before dispatch.
func validateEvent(kind domain.ResourceKind, event domain.FirehoseEvent) error {
	if !event.Type.HasPayload() {
		return nil
	}
	if event.Record == nil {
		return &domain.ValidationError{Kind: kind, Field: "record", Reason: "is missing"}
	}
	if event.CID == nil || *event.CID == "" {
		return &domain.ValidationError{Kind: kind, Field: "cid", Reason: "is missing"}
	}

	switch kind {
	case domain.ResourceKindCard:
		if s, _ := event.Record["type"].(string); s == "" {
			return &domain.ValidationError{Kind: kind, Field: "type", Reason: "is required"}
		}
		if _, ok := event.Record["content"].(map[string]any); !ok {
			return &domain.ValidationError{Kind: kind, Field: "content", Reason: "must be an object"}
		}
	case domain.ResourceKindCollection:
		if s, _ := event.Record["name"].(string); s == "" {
			return &domain.ValidationError{Kind: kind, Field: "name", Reason: "is required"}
		}
	case domain.ResourceKindCollectionLink:
		for _, field := range []string{"collection", "card"} {
			ref, ok := event.Record[field].(map[string]any)
			if !ok {
				return &domain.ValidationError{Kind: kind, Field: field, Reason: "must be a strong ref"}
			}
			if s, _ := ref["uri"].(string); s == "" {
				return &domain.ValidationError{Kind: kind, Field: field + ".uri", Reason: "is required"}
			}
		}
	}
	return nil
}
