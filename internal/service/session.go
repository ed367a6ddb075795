package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
	"github.com/totegamma/cardfeed/internal/usecase"
)

const (
	DefaultReconnectDelay    = 5 * time.Second
	DefaultMaxReconnectDelay = 10 * time.Second
	cursorFlushInterval      = time.Second
)

var ErrSessionRunning = errors.New("firehose session already running")

// Enqueuer accepts classified events for delayed dispatch.
type Enqueuer interface {
	Enqueue(event domain.FirehoseEvent)
}

type SessionConfig struct {
	Collections       domain.CollectionConfig
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	// CursorRewind moves a resumed cursor back so events that were still
	// buffered at shutdown are delivered again.
	CursorRewind time.Duration
}

// SessionManager owns the single upstream subscription. Start and Stop must
// be serialized by the caller.
type SessionManager struct {
	gateway    usecase.FirehoseGateway
	classifier *usecase.Classifier
	queue      Enqueuer
	cursors    usecase.CursorRepository
	config     SessionConfig
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	connected atomic.Bool
	cursor    atomic.Int64
	lastFlush time.Time
}

func NewSessionManager(
	gateway usecase.FirehoseGateway,
	classifier *usecase.Classifier,
	queue Enqueuer,
	cursors usecase.CursorRepository,
	config SessionConfig,
	logger *zap.Logger,
) *SessionManager {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	if config.MaxReconnectDelay < config.ReconnectDelay {
		config.MaxReconnectDelay = DefaultMaxReconnectDelay
		if config.MaxReconnectDelay < config.ReconnectDelay {
			config.MaxReconnectDelay = config.ReconnectDelay
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		gateway:    gateway,
		classifier: classifier,
		queue:      queue,
		cursors:    cursors,
		config:     config,
		logger:     logger,
	}
}

func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrSessionRunning
	}

	if m.cursors != nil {
		cursor, ok, err := m.cursors.Load(ctx)
		if err != nil {
			m.logger.Warn("failed to load cursor, starting from live", zap.Error(err))
		} else if ok {
			cursor -= m.config.CursorRewind.Microseconds()
			if cursor < 0 {
				cursor = 0
			}
			m.cursor.Store(cursor)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(ctx, m.done)
	return nil
}

// Stop closes the subscription and flushes the cursor.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.cancel()
	<-m.done
	m.running = false

	m.flushCursor(context.Background(), true)
}

func (m *SessionManager) Connected() bool {
	return m.connected.Load()
}

func (m *SessionManager) Cursor() int64 {
	return m.cursor.Load()
}

func (m *SessionManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.config.ReconnectDelay
	bo.MaxInterval = m.config.MaxReconnectDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.Reset()

	for {
		if ctx.Err() != nil {
			return
		}

		delivered, err := m.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if delivered {
			bo.Reset()
		}

		wait := bo.NextBackOff()
		m.logger.Warn("firehose connection lost, reconnecting",
			zap.Error(err),
			zap.Duration("after", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one subscription until it fails. It reports whether any
// message was received so repeated immediate failures keep backing off.
func (m *SessionManager) session(ctx context.Context) (bool, error) {
	opts := usecase.SubscribeOptions{
		Collections: m.config.Collections.Names(),
	}
	if cursor := m.cursor.Load(); cursor > 0 {
		opts.Cursor = &cursor
	}

	sub, err := m.gateway.Subscribe(ctx, opts)
	if err != nil {
		return false, errors.Wrap(err, "failed to subscribe")
	}
	defer sub.Close()

	m.connected.Store(true)
	defer m.connected.Store(false)
	m.logger.Info("firehose connected", zap.Strings("collections", opts.Collections))

	delivered := false
	for {
		data, err := sub.Next(ctx)
		if err != nil {
			return delivered, err
		}
		delivered = true
		m.handle(ctx, data)
	}
}

func (m *SessionManager) handle(ctx context.Context, data []byte) {
	var n cardfeed.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		m.logger.Warn("skipping malformed notification", zap.Error(err))
		return
	}

	if n.TimeUS > m.cursor.Load() {
		m.cursor.Store(n.TimeUS)
	}
	m.flushCursor(ctx, false)

	event, err := m.classifier.Classify(n)
	if err != nil {
		m.logger.Warn("dropping invalid event", zap.Int64("seq", n.TimeUS), zap.Error(err))
		return
	}
	if event == nil {
		return
	}

	m.queue.Enqueue(*event)
}

// flushCursor persists the cursor at most once per flush interval unless forced.
func (m *SessionManager) flushCursor(ctx context.Context, force bool) {
	if m.cursors == nil {
		return
	}
	cursor := m.cursor.Load()
	if cursor <= 0 {
		return
	}
	now := time.Now()
	if !force && now.Sub(m.lastFlush) < cursorFlushInterval {
		return
	}
	m.lastFlush = now

	if err := m.cursors.Save(ctx, cursor); err != nil {
		m.logger.Warn("failed to save cursor", zap.Int64("cursor", cursor), zap.Error(err))
	}
}
