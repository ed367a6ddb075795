package gateway

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/totegamma/cardfeed/internal/usecase"
)

const DefaultJetstreamEndpoint = "wss://jetstream2.us-east.bsky.network/subscribe"

// JetstreamGateway dials a Jetstream subscribe endpoint over websocket.
type JetstreamGateway struct {
	endpoint string
	dialer   *websocket.Dialer
}

func NewJetstreamGateway(endpoint string) *JetstreamGateway {
	if endpoint == "" {
		endpoint = DefaultJetstreamEndpoint
	}
	return &JetstreamGateway{
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
	}
}

// SubscribeURL returns the endpoint with the collection filter and cursor applied.
func (g *JetstreamGateway) SubscribeURL(opts usecase.SubscribeOptions) (string, error) {
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return "", errors.Wrap(err, "invalid jetstream endpoint")
	}

	query := u.Query()
	query.Del("wantedCollections")
	for _, collection := range opts.Collections {
		query.Add("wantedCollections", collection)
	}
	if opts.Cursor != nil {
		query.Set("cursor", strconv.FormatInt(*opts.Cursor, 10))
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func (g *JetstreamGateway) Subscribe(ctx context.Context, opts usecase.SubscribeOptions) (usecase.Subscription, error) {
	target, err := g.SubscribeURL(opts)
	if err != nil {
		return nil, err
	}

	conn, _, err := g.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial jetstream")
	}

	return &jetstreamSubscription{conn: conn}, nil
}

type jetstreamSubscription struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Next blocks until a message arrives. Cancelling ctx closes the connection.
func (s *jetstreamSubscription) Next(ctx context.Context) ([]byte, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, "jetstream read failed")
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (s *jetstreamSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

var _ usecase.FirehoseGateway = (*JetstreamGateway)(nil)
