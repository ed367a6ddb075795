package usecase

import (
	"context"

	"github.com/totegamma/cardfeed/internal/domain"
)

// CardRepository stores cards. FindByID returns domain.NotFoundError when absent.
type CardRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Card, error)
	Save(ctx context.Context, card domain.Card) error
	Delete(ctx context.Context, id string) error
}

// CollectionRepository stores collections. FindByID returns domain.NotFoundError when absent.
type CollectionRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Collection, error)
	Save(ctx context.Context, collection domain.Collection) error
	Delete(ctx context.Context, id string) error
}

// CollectionLinkRepository stores collection links. FindByID returns domain.NotFoundError when absent.
type CollectionLinkRepository interface {
	FindByID(ctx context.Context, id string) (*domain.CollectionLink, error)
	Save(ctx context.Context, link domain.CollectionLink) error
	Delete(ctx context.Context, id string) error
}

// ResolutionRepository maps network AT-URIs to local entity ids.
// Resolve returns nil when the uri is not known locally.
type ResolutionRepository interface {
	Resolve(ctx context.Context, kind domain.ResourceKind, uri string) (*string, error)
	Store(ctx context.Context, kind domain.ResourceKind, uri, localID string) error
	Remove(ctx context.Context, kind domain.ResourceKind, uri string) error
}

// LedgerRepository is the insert-only record of applied (uri, cid) writes.
type LedgerRepository interface {
	Exists(ctx context.Context, uri, cid string) (bool, error)
	Record(ctx context.Context, uri, cid string) error
	// DeleteByURI removes every entry of the uri and returns the removed cids.
	DeleteByURI(ctx context.Context, uri string) ([]string, error)
}

// CursorRepository persists the upstream subscription cursor.
type CursorRepository interface {
	Load(ctx context.Context) (int64, bool, error)
	Save(ctx context.Context, cursor int64) error
}

// SignalPublisher announces applied projections to other processes.
type SignalPublisher interface {
	Publish(ctx context.Context, channel string, signal domain.Signal) error
}

// SubscribeOptions narrows an upstream subscription.
type SubscribeOptions struct {
	Collections []string
	Cursor      *int64
}

// FirehoseGateway opens subscriptions to the upstream event stream.
type FirehoseGateway interface {
	Subscribe(ctx context.Context, opts SubscribeOptions) (Subscription, error)
}

// Subscription yields raw upstream messages in delivery order.
type Subscription interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}
