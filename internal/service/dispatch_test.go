package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []domain.FirehoseEvent
	fail   map[string]bool
}

func (h *recordingHandler) Process(ctx context.Context, event domain.FirehoseEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	if h.fail[event.URI.RecordKey] {
		return errors.New("projection failed")
	}
	return nil
}

func (h *recordingHandler) keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var keys []string
	for _, ev := range h.events {
		keys = append(keys, ev.URI.RecordKey)
	}
	return keys
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var testCollections = domain.CollectionConfig{
	Card:           "app.kind.card",
	Collection:     "app.kind.collection",
	CollectionLink: "app.kind.collectionLink",
}

func testEvent(rkey string) domain.FirehoseEvent {
	return kindEvent(testCollections.Card, rkey)
}

func kindEvent(collection, rkey string) domain.FirehoseEvent {
	return domain.FirehoseEvent{
		URI:  cardfeed.ATURI{Authority: "did:example:abc", Collection: collection, RecordKey: rkey},
		Type: domain.EventTypeDelete,
	}
}

func newTestQueue(h EventHandler) (*DispatchQueue, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	q := NewDispatchQueue(h, testCollections, 3*time.Second, time.Second, nil)
	q.now = clock.now
	return q, clock
}

func TestDispatchQueueHoldsEventsForGracePeriod(t *testing.T) {
	h := &recordingHandler{}
	q, clock := newTestQueue(h)

	q.Enqueue(testEvent("a"))

	clock.advance(2999 * time.Millisecond)
	q.drain(context.Background())
	if len(h.keys()) != 0 {
		t.Fatalf("event dispatched before grace period elapsed")
	}
	if q.Len() != 1 {
		t.Fatalf("expected event to stay queued")
	}

	clock.advance(time.Millisecond)
	q.drain(context.Background())
	if got := h.keys(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected event at grace boundary, got %v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue to be empty")
	}
}

func TestDispatchQueuePreservesReceiptOrder(t *testing.T) {
	h := &recordingHandler{}
	q, clock := newTestQueue(h)

	q.Enqueue(testEvent("a"))
	clock.advance(500 * time.Millisecond)
	q.Enqueue(testEvent("b"))
	clock.advance(2 * time.Second)
	q.Enqueue(testEvent("c"))

	clock.advance(600 * time.Millisecond)
	q.drain(context.Background())
	if got := h.keys(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected only a, got %v", got)
	}

	clock.advance(500 * time.Millisecond)
	q.drain(context.Background())
	if got := h.keys(); len(got) != 2 || got[1] != "b" {
		t.Fatalf("expected a then b, got %v", got)
	}

	clock.advance(3 * time.Second)
	q.drain(context.Background())
	if got := h.keys(); len(got) != 3 || got[2] != "c" {
		t.Fatalf("expected c last, got %v", got)
	}
}

func TestDispatchQueueOrdersDependenciesFirst(t *testing.T) {
	h := &recordingHandler{}
	q, clock := newTestQueue(h)

	q.Enqueue(kindEvent(testCollections.CollectionLink, "link1"))
	q.Enqueue(kindEvent(testCollections.Card, "card1"))
	q.Enqueue(kindEvent(testCollections.Collection, "col1"))
	q.Enqueue(kindEvent(testCollections.Card, "card2"))

	clock.advance(3 * time.Second)
	q.drain(context.Background())

	want := []string{"col1", "card1", "card2", "link1"}
	got := h.keys()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDispatchQueueHoldsLinkForLaterCard(t *testing.T) {
	h := &recordingHandler{}
	q, clock := newTestQueue(h)

	q.Enqueue(kindEvent(testCollections.CollectionLink, "link1"))
	clock.advance(1500 * time.Millisecond)
	q.Enqueue(kindEvent(testCollections.Card, "card1"))

	clock.advance(1600 * time.Millisecond)
	q.drain(context.Background())
	if got := h.keys(); len(got) != 0 {
		t.Fatalf("link must wait for the card received after it, got %v", got)
	}
	if q.Len() != 2 {
		t.Fatalf("expected both events to stay queued, got %d", q.Len())
	}

	clock.advance(1500 * time.Millisecond)
	q.drain(context.Background())
	if got := h.keys(); len(got) != 2 || got[0] != "card1" || got[1] != "link1" {
		t.Fatalf("expected card before link, got %v", got)
	}
}

func TestDispatchQueueDoesNotHoldLinkForDistantCard(t *testing.T) {
	h := &recordingHandler{}
	q, clock := newTestQueue(h)

	q.Enqueue(kindEvent(testCollections.CollectionLink, "link1"))
	clock.advance(3500 * time.Millisecond)
	q.Enqueue(kindEvent(testCollections.Card, "card1"))

	q.drain(context.Background())
	if got := h.keys(); len(got) != 1 || got[0] != "link1" {
		t.Fatalf("expected link to be dispatched, got %v", got)
	}
}

func TestDispatchQueueContinuesAfterFailure(t *testing.T) {
	h := &recordingHandler{fail: map[string]bool{"a": true}}
	q, clock := newTestQueue(h)

	q.Enqueue(testEvent("a"))
	q.Enqueue(testEvent("b"))
	clock.advance(3 * time.Second)
	q.drain(context.Background())

	if got := h.keys(); len(got) != 2 {
		t.Fatalf("expected both events to be dispatched, got %v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("failed events must be removed from the queue")
	}
}

func TestDispatchQueueStopDropsBufferedEvents(t *testing.T) {
	h := &recordingHandler{}
	q, clock := newTestQueue(h)

	q.Enqueue(testEvent("a"))
	q.Stop()
	q.Enqueue(testEvent("b"))

	clock.advance(time.Minute)
	q.drain(context.Background())
	if len(h.keys()) != 0 || q.Len() != 0 {
		t.Fatalf("expected buffered events to be dropped on stop")
	}
	q.Stop()
}

func TestDispatchQueueRun(t *testing.T) {
	h := &recordingHandler{}
	q := NewDispatchQueue(h, testCollections, 20*time.Millisecond, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Enqueue(testEvent("a"))

	deadline := time.After(2 * time.Second)
	for len(h.keys()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("event was never dispatched")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
