package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ai-market-coach/realtime"
)

const watchPingInterval = 30 * time.Second

// Envelope is an event as received from the stream
type Envelope struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SessionCreated decodes the payload of a session.created event
func (e Envelope) SessionCreated() (*realtime.SessionCreated, error) {
	if e.Type != realtime.EventSessionCreated {
		return nil, fmt.Errorf("event %q is not %s", e.Type, realtime.EventSessionCreated)
	}
	var p realtime.SessionCreated
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// stream is one WebSocket connection to the events endpoint
type stream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *stream) writeControl(messageType int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteControl(messageType, nil, time.Now().Add(5*time.Second))
}

// startPing keeps the connection alive until ctx is done
func (s *stream) startPing(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.writeControl(websocket.PingMessage); err != nil {
					return
				}
			}
		}
	}()
}

// wsURL maps the API base URL onto the WebSocket endpoint
func (c *Client) wsURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/ws"
}

// Watch streams events to fn until ctx is cancelled or the connection drops.
// A cancelled ctx returns nil.
func (c *Client) Watch(ctx context.Context, fn func(Envelope)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), http.Header{})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.wsURL(), err)
	}
	s := &stream{conn: conn}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startPing(watchCtx, watchPingInterval)

	// unblock ReadMessage on cancellation
	go func() {
		<-watchCtx.Done()
		s.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		fn(env)
	}
}
