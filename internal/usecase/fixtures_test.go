package usecase

import (
	"testing"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
)

var testCollections = domain.CollectionConfig{
	Card:           "app.kind.card",
	Collection:     "app.kind.collection",
	CollectionLink: "app.kind.collectionLink",
}

func mustURI(t *testing.T, raw string) cardfeed.ATURI {
	t.Helper()
	uri, err := cardfeed.ParseATURI(raw)
	if err != nil {
		t.Fatalf("bad uri %s: %v", raw, err)
	}
	return uri
}

func createEvent(t *testing.T, raw, cid string, record map[string]any) domain.FirehoseEvent {
	t.Helper()
	uri := mustURI(t, raw)
	return domain.FirehoseEvent{
		URI:       uri,
		Authority: uri.Authority,
		Type:      domain.EventTypeCreate,
		CID:       &cid,
		Record:    record,
		Seq:       1,
	}
}

func updateEvent(t *testing.T, raw, cid string, record map[string]any) domain.FirehoseEvent {
	t.Helper()
	ev := createEvent(t, raw, cid, record)
	ev.Type = domain.EventTypeUpdate
	return ev
}

func deleteEvent(t *testing.T, raw string) domain.FirehoseEvent {
	t.Helper()
	uri := mustURI(t, raw)
	return domain.FirehoseEvent{
		URI:       uri,
		Authority: uri.Authority,
		Type:      domain.EventTypeDelete,
		Seq:       1,
	}
}

func noteRecord(text string) map[string]any {
	return map[string]any{
		"type":    "NOTE",
		"content": map[string]any{"text": text},
	}
}

func linkRecord(collectionURI, cardURI string) map[string]any {
	return map[string]any{
		"collection": map[string]any{"uri": collectionURI, "cid": "bafycol"},
		"card":       map[string]any{"uri": cardURI, "cid": "bafycard"},
	}
}

const (
	cardURI       = "at://did:example:abc/app.kind.card/rkey1"
	collectionURI = "at://did:example:abc/app.kind.collection/col1"
	linkURI       = "at://did:example:abc/app.kind.collectionLink/link1"
)
