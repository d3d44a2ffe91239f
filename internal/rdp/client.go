// Package rdp implements a client for the Chrome-style remote debugging
// protocol spoken by script runtimes (the Debugger, Runtime and Console
// domains over a WebSocket).
//
// This package provides:
//   - Client: id-keyed request/response correlation plus domain-event delivery
//   - DiscoverWebSocketURL: target discovery against the runtime's HTTP endpoint
//   - Wire types for the protocol messages the bridge uses (protocol.go)
package rdp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RPCError is an error reported by the runtime for a single call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

type message struct {
	ID     int             `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

type callResult struct {
	result json.RawMessage
	err    error
}

// EventHandler receives domain events, e.g. "Debugger.paused".
type EventHandler func(method string, params json.RawMessage)

// Client speaks the remote debugging protocol over a WebSocket connection.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	seq     int

	mu      sync.Mutex
	pending map[int]chan callResult

	eventHandler EventHandler
	closeHandler func(err error)

	trace bool

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to the runtime at the given WebSocket URL.
func Dial(ctx context.Context, wsURL string, trace bool) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to runtime at %s: %w", wsURL, err)
	}

	c := &Client{
		conn:    conn,
		seq:     1,
		pending: make(map[int]chan callResult),
		trace:   trace,
		closed:  make(chan struct{}),
	}

	go c.readLoop()

	return c, nil
}

// SetEventHandler sets the handler for domain events. Must be set before
// any call that can provoke events.
func (c *Client) SetEventHandler(handler EventHandler) {
	c.eventHandler = handler
}

// SetCloseHandler sets the handler invoked once when the socket closes.
func (c *Client) SetCloseHandler(handler func(err error)) {
	c.closeHandler = handler
}

// readLoop continuously reads messages from the socket and routes them to
// pending calls or the event handler.
func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(err)
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("RDP: dropping unparseable message: %v", err)
			continue
		}

		if msg.Method != "" {
			if c.trace {
				log.Printf("RDP <- %s %s", msg.Method, truncateForLog(msg.Params))
			}
			if c.eventHandler != nil {
				c.eventHandler(msg.Method, msg.Params)
			}
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.mu.Unlock()

		if !ok {
			continue
		}

		if msg.Error != nil {
			ch <- callResult{err: msg.Error}
		} else {
			ch <- callResult{result: msg.Result}
		}
	}
}

// shutdown fails all pending calls and notifies the close handler once.
func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		for id, ch := range c.pending {
			ch <- callResult{err: fmt.Errorf("connection closed: %w", err)}
			delete(c.pending, id)
		}
		c.mu.Unlock()

		if c.closeHandler != nil {
			c.closeHandler(err)
		}
	})
}

// Call invokes a protocol method and waits for its response. A nil params
// value sends the method with no parameters.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s params: %w", method, err)
		}
		rawParams = data
	}

	ch := make(chan callResult, 1)

	c.writeMu.Lock()
	id := c.seq
	c.seq++

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if c.trace {
		log.Printf("RDP -> %s %s", method, truncateForLog(rawParams))
	}

	err := c.conn.WriteJSON(message{ID: id, Method: method, Params: rawParams})
	c.writeMu.Unlock()

	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	}
}

// CallInto invokes a protocol method and unmarshals the result into out.
// Pass nil out to discard the result.
func (c *Client) CallInto(ctx context.Context, method string, params, out interface{}) error {
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// Close closes the underlying socket. Pending calls fail.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.shutdown(fmt.Errorf("client closed"))
	return err
}

// targetInfo is one entry of the runtime's /json/list response.
type targetInfo struct {
	URL                  string `json:"url"`
	Title                string `json:"title"`
	Type                 string `json:"type"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// DiscoverWebSocketURL queries the runtime's HTTP discovery endpoint at
// address:port and returns the WebSocket URL of the first debuggable target.
// When urlFilter is non-empty only targets whose URL contains the filter are
// considered. The runtime may not be listening yet, so discovery retries
// every 200ms until the timeout elapses.
func DiscoverWebSocketURL(ctx context.Context, address string, port int, urlFilter string, timeout time.Duration) (string, error) {
	if address == "" {
		address = "127.0.0.1"
	}
	listURL := fmt.Sprintf("http://%s:%d/json/list", address, port)

	deadline := time.Now().Add(timeout)
	var lastErr error

	for {
		wsURL, err := fetchTarget(ctx, listURL, urlFilter)
		if err == nil {
			return wsURL, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return "", fmt.Errorf("cannot connect to the target at %s:%d: %w", address, port, lastErr)
		}

		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func fetchTarget(ctx context.Context, listURL, urlFilter string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var targets []targetInfo
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("failed to decode target list: %w", err)
	}

	for _, t := range targets {
		if t.WebSocketDebuggerURL == "" {
			continue
		}
		if urlFilter != "" && !strings.Contains(t.URL, urlFilter) {
			continue
		}
		return t.WebSocketDebuggerURL, nil
	}

	return "", fmt.Errorf("no debuggable target found")
}

// truncateForLog keeps trace lines readable.
func truncateForLog(raw json.RawMessage) string {
	const max = 400
	s := string(raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
