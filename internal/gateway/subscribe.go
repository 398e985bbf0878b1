package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/starford/notely/internal/models"
)

// Subscribe opens the change-notification stream for the caller's notes.
// The returned channel is closed when ctx ends or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, error) {
	header := http.Header{}
	if tok := c.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.realtimeURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, &Error{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("gateway: subscribe: %w", err)
	}

	events := make(chan models.ChangeEvent, 16)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		defer conn.Close()
		for {
			var ev models.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (c *Client) realtimeURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/realtime"
}
