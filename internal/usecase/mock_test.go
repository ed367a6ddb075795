package usecase

import (
	"context"
	"errors"

	"github.com/totegamma/cardfeed/internal/domain"
)

type mockCardRepo struct {
	cards map[string]domain.Card
	finds int
	err   error
}

func newMockCardRepo() *mockCardRepo {
	return &mockCardRepo{cards: map[string]domain.Card{}}
}

func (m *mockCardRepo) FindByID(ctx context.Context, id string) (*domain.Card, error) {
	m.finds++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cards[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "card"}
	}
	return &c, nil
}
func (m *mockCardRepo) Save(ctx context.Context, card domain.Card) error {
	if m.err != nil {
		return m.err
	}
	m.cards[card.ID] = card
	return nil
}
func (m *mockCardRepo) Delete(ctx context.Context, id string) error {
	delete(m.cards, id)
	return nil
}

type mockCollectionRepo struct {
	collections map[string]domain.Collection
	calls       int
}

func newMockCollectionRepo() *mockCollectionRepo {
	return &mockCollectionRepo{collections: map[string]domain.Collection{}}
}

func (m *mockCollectionRepo) FindByID(ctx context.Context, id string) (*domain.Collection, error) {
	m.calls++
	c, ok := m.collections[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "collection"}
	}
	return &c, nil
}
func (m *mockCollectionRepo) Save(ctx context.Context, collection domain.Collection) error {
	m.calls++
	m.collections[collection.ID] = collection
	return nil
}
func (m *mockCollectionRepo) Delete(ctx context.Context, id string) error {
	m.calls++
	delete(m.collections, id)
	return nil
}

type mockLinkRepo struct {
	links map[string]domain.CollectionLink
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{links: map[string]domain.CollectionLink{}}
}

func (m *mockLinkRepo) FindByID(ctx context.Context, id string) (*domain.CollectionLink, error) {
	l, ok := m.links[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "collection link"}
	}
	return &l, nil
}
func (m *mockLinkRepo) Save(ctx context.Context, link domain.CollectionLink) error {
	m.links[link.ID] = link
	return nil
}
func (m *mockLinkRepo) Delete(ctx context.Context, id string) error {
	delete(m.links, id)
	return nil
}

type mockResolutionRepo struct {
	mappings      map[string]string
	err           error
	storeFailures int
}

func newMockResolutionRepo() *mockResolutionRepo {
	return &mockResolutionRepo{mappings: map[string]string{}}
}

func (m *mockResolutionRepo) Resolve(ctx context.Context, kind domain.ResourceKind, uri string) (*string, error) {
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.mappings[string(kind)+"|"+uri]
	if !ok {
		return nil, nil
	}
	return &id, nil
}
func (m *mockResolutionRepo) Store(ctx context.Context, kind domain.ResourceKind, uri, localID string) error {
	if m.storeFailures > 0 {
		m.storeFailures--
		return errStoreDown
	}
	m.mappings[string(kind)+"|"+uri] = localID
	return nil
}
func (m *mockResolutionRepo) Remove(ctx context.Context, kind domain.ResourceKind, uri string) error {
	delete(m.mappings, string(kind)+"|"+uri)
	return nil
}

type mockLedgerRepo struct {
	entries map[string]map[string]bool
	err     error
}

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{entries: map[string]map[string]bool{}}
}

func (m *mockLedgerRepo) Exists(ctx context.Context, uri, cid string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.entries[uri][cid], nil
}
func (m *mockLedgerRepo) Record(ctx context.Context, uri, cid string) error {
	if m.entries[uri] == nil {
		m.entries[uri] = map[string]bool{}
	}
	m.entries[uri][cid] = true
	return nil
}
func (m *mockLedgerRepo) DeleteByURI(ctx context.Context, uri string) ([]string, error) {
	var cids []string
	for cid := range m.entries[uri] {
		cids = append(cids, cid)
	}
	delete(m.entries, uri)
	return cids, nil
}
func (m *mockLedgerRepo) count() int {
	n := 0
	for _, cids := range m.entries {
		n += len(cids)
	}
	return n
}

type mockSignals struct {
	channels []string
	err      error
}

func (m *mockSignals) Publish(ctx context.Context, channel string, signal domain.Signal) error {
	m.channels = append(m.channels, channel)
	return m.err
}

var errStoreDown = errors.New("store unavailable")

// pipeline wires every use case against in-memory repositories.
type pipeline struct {
	cards       *mockCardRepo
	collections *mockCollectionRepo
	links       *mockLinkRepo
	resolution  *mockResolutionRepo
	ledger      *mockLedgerRepo
	signals     *mockSignals
	router      *Router
	ingest      *IngestUsecase
}

func newPipeline() *pipeline {
	p := &pipeline{
		cards:       newMockCardRepo(),
		collections: newMockCollectionRepo(),
		links:       newMockLinkRepo(),
		resolution:  newMockResolutionRepo(),
		ledger:      newMockLedgerRepo(),
		signals:     &mockSignals{},
	}

	resolution := NewResolutionService(p.resolution)
	p.router = NewRouter(
		testCollections,
		NewCardProjector(p.cards, resolution),
		NewCollectionProjector(p.collections, resolution),
		NewCollectionLinkProjector(p.links, p.cards, resolution),
	)
	dedup := NewDeduplicationService(p.ledger, resolution, testCollections)
	p.ingest = NewIngestUsecase(dedup, p.router, p.ledger, p.signals, nil)
	return p
}
