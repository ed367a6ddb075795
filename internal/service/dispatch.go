package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/totegamma/cardfeed/internal/domain"
)

const (
	DefaultGracePeriod  = 3 * time.Second
	DefaultTickInterval = 1 * time.Second
)

// EventHandler receives events once their grace period has elapsed.
type EventHandler interface {
	Process(ctx context.Context, event domain.FirehoseEvent) error
}

// DispatchQueue holds every accepted event for a grace period before handing
// it to the handler, so that records published together have time to land in
// causal order. Run is the only goroutine that drains the buffer; Enqueue only
// appends.
//
// Within one drain, collections are dispatched before cards and cards before
// links; events of the same kind keep receipt order. A ready link is held back
// while a card or collection received within one grace period after it is
// still waiting.
type DispatchQueue struct {
	handler     EventHandler
	collections domain.CollectionConfig
	logger      *zap.Logger
	grace   time.Duration
	tick    time.Duration
	now     func() time.Time

	mu      sync.Mutex
	pending []domain.QueuedEvent

	stopOnce sync.Once
	stop     chan struct{}
}

func NewDispatchQueue(
	handler EventHandler,
	collections domain.CollectionConfig,
	grace, tick time.Duration,
	logger *zap.Logger,
) *DispatchQueue {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchQueue{
		handler:     handler,
		collections: collections,
		logger:      logger,
		grace:       grace,
		tick:        tick,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
}

// Enqueue appends the event and returns immediately.
func (q *DispatchQueue) Enqueue(event domain.FirehoseEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.stop:
		return
	default:
	}

	q.pending = append(q.pending, domain.QueuedEvent{
		Event:      event,
		ReceivedAt: q.now(),
	})
}

// Len returns the number of buffered events.
func (q *DispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run drains ready events every tick until the context is done or Stop is called.
func (q *DispatchQueue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.Stop()
			return
		case <-q.stop:
			return
		case <-ticker.C:
			q.drain(ctx)
		}
	}
}

// Stop discards buffered events. Events still buffered are not delivered.
func (q *DispatchQueue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		close(q.stop)
		dropped := len(q.pending)
		q.pending = nil
		q.mu.Unlock()

		if dropped > 0 {
			q.logger.Info("dropped undelivered events on shutdown", zap.Int("count", dropped))
		}
	})
}

func (q *DispatchQueue) drain(ctx context.Context) {
	ready := q.takeReady()

	for i, queued := range ready {
		select {
		case <-q.stop:
			q.logger.Info("dropped undelivered events on shutdown", zap.Int("count", len(ready)-i))
			return
		default:
		}

		event := queued.Event
		if err := q.handler.Process(ctx, event); err != nil {
			q.logger.Error("failed to process event",
				zap.String("uri", event.URI.String()),
				zap.String("op", string(event.Type)),
				zap.Int64("seq", event.Seq),
				zap.Error(err),
			)
		}
	}
}

// takeReady removes and returns, in dispatch order, every event whose age
// reached the grace period and that does not wait on a pending dependency.
func (q *DispatchQueue) takeReady() []domain.QueuedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()

	// earliest receipt among card and collection events still in their grace period
	var pendingDep time.Time
	for _, queued := range q.pending {
		if now.Sub(queued.ReceivedAt) < q.grace && q.rank(queued.Event) < linkRank {
			if pendingDep.IsZero() || queued.ReceivedAt.Before(pendingDep) {
				pendingDep = queued.ReceivedAt
			}
		}
	}

	var ready []domain.QueuedEvent
	waiting := q.pending[:0]
	for _, queued := range q.pending {
		if now.Sub(queued.ReceivedAt) >= q.grace && !q.heldBack(queued, pendingDep) {
			ready = append(ready, queued)
		} else {
			waiting = append(waiting, queued)
		}
	}
	for i := len(waiting); i < len(q.pending); i++ {
		q.pending[i] = domain.QueuedEvent{}
	}
	q.pending = waiting

	sort.SliceStable(ready, func(i, j int) bool {
		return q.rank(ready[i].Event) < q.rank(ready[j].Event)
	})
	return ready
}

const (
	collectionRank = iota
	cardRank
	linkRank
)

func (q *DispatchQueue) rank(event domain.FirehoseEvent) int {
	kind, _ := q.collections.KindOf(event.URI.Collection)
	switch kind {
	case domain.ResourceKindCollection:
		return collectionRank
	case domain.ResourceKindCollectionLink:
		return linkRank
	default:
		return cardRank
	}
}

func (q *DispatchQueue) heldBack(queued domain.QueuedEvent, pendingDep time.Time) bool {
	if pendingDep.IsZero() || q.rank(queued.Event) != linkRank {
		return false
	}
	return !pendingDep.After(queued.ReceivedAt.Add(q.grace))
}
