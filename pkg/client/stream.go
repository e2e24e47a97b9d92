package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grovetools/treescope/pkg/models"
)

// DefaultReconnectBackoff is the pause between websocket reconnect
// attempts in Watch.
const DefaultReconnectBackoff = 1 * time.Second

// WatchEvent carries one stream message or a transport error. After an
// Err event the stream keeps going: Watch reconnects and the daemon
// replays the current snapshot on the new connection.
type WatchEvent struct {
	Message models.StreamMessage
	Err     error
}

// Stream opens a single SSE connection to /api/stream and delivers its
// messages until the context is cancelled or the connection drops. The
// channel is closed when the stream ends.
func (c *Client) Stream(ctx context.Context) (<-chan models.StreamMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL()+"/api/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// Streams outlive the default request timeout.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&errResp)
		resp.Body.Close()
		if decodeErr == nil && errResp.Message != "" {
			return nil, &streamError{errResp.Message}
		}
		return nil, &streamError{resp.Status}
	}

	ch := make(chan models.StreamMessage)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var msg models.StreamMessage
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

type streamError struct{ msg string }

func (e *streamError) Error() string { return e.msg }

// Watch connects to /api/watch over a websocket and delivers stream
// messages until the context is cancelled. Dropped connections are
// retried with a fixed backoff; each drop is surfaced as an Err event
// so callers can show a disconnected state.
func (c *Client) Watch(ctx context.Context) <-chan WatchEvent {
	ch := make(chan WatchEvent)
	go func() {
		defer close(ch)
		for {
			err := c.watchOnce(ctx, ch)
			if ctx.Err() != nil {
				return
			}
			select {
			case ch <- WatchEvent{Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-time.After(DefaultReconnectBackoff):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// watchOnce runs one websocket session, returning the error that
// ended it.
func (c *Client) watchOnce(ctx context.Context, ch chan<- WatchEvent) error {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, c.network, c.addr)
		},
		HandshakeTimeout: 5 * time.Second,
	}

	wsURL := "ws://" + hostForURL(c.network, c.addr) + "/api/watch"
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	defer conn.Close()

	// Unblock reads when the context is cancelled.
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
		var msg models.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		select {
		case ch <- WatchEvent{Message: msg}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func hostForURL(network, addr string) string {
	if network == "unix" {
		return "unix"
	}
	return addr
}
