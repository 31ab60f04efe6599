package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamInitialBackoff = time.Second
	streamMaxBackoff     = 30 * time.Second
)

// Stream subscribes to the server's notification websocket and feeds
// arriving payloads into a NotificationStore via Receive. Reconnects
// with exponential backoff until the context is cancelled.
type Stream struct {
	baseURL string
	tokens  TokenStore
	store   *NotificationStore
	dialer  *websocket.Dialer
}

// NewStream creates a notification stream. baseURL is the same HTTP
// base the transport uses; the scheme is rewritten for websockets.
func NewStream(baseURL string, tokens TokenStore, store *NotificationStore) *Stream {
	return &Stream{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		store:   store,
		dialer:  websocket.DefaultDialer,
	}
}

func (s *Stream) endpoint() (string, error) {
	u, err := url.Parse(s.baseURL + "/api/v1/notifications/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	// Browsers cannot set headers on websocket connects, so the server
	// accepts the token as a query parameter; do the same here.
	q := u.Query()
	q.Set("token", s.tokens.AccessToken())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run connects and pumps notifications until ctx is cancelled. Each
// dropped connection is retried with exponential backoff.
func (s *Stream) Run(ctx context.Context) error {
	backoff := streamInitialBackoff

	for {
		connected, err := s.connectAndRead(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = streamInitialBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}
	}
}

func (s *Stream) connectAndRead(ctx context.Context) (bool, error) {
	endpoint, err := s.endpoint()
	if err != nil {
		return false, err
	}

	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadMessage
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		var n Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			// Skip malformed frames rather than dropping the
			// connection.
			continue
		}
		s.store.Receive(n)
	}
}
