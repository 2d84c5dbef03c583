package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names on the wire, matching the inference backend's protocol.
const (
	eventFrame   = "frame"
	eventEmotion = "emotion"
)

// envelope wraps every message crossing the websocket.
type envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Options tunes the websocket client.
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxRetries       int
}

// DefaultOptions mirror the figures used for other upstream connections.
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 30 * time.Second,
		WriteTimeout:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxRetries:       3,
	}
}

// WebsocketClient implements Client over a gorilla websocket connection.
type WebsocketClient struct {
	url     string
	options Options

	writeMu sync.Mutex
	conn    *websocket.Conn
	samples chan InboundSample
	cancel  context.CancelFunc
	closed  sync.Once
}

// NewWebsocketClient prepares a client for the given endpoint. Connect must
// be called before use.
func NewWebsocketClient(url string, options Options) *WebsocketClient {
	if options.HandshakeTimeout == 0 {
		options = DefaultOptions()
	}
	return &WebsocketClient{
		url:     url,
		options: options,
		samples: make(chan InboundSample, 16),
	}
}

// Connect dials the inference service, retrying with a linear backoff, then
// starts the read pump and ping loop.
func (c *WebsocketClient) Connect(ctx context.Context) error {
	var lastErr error

	for attempt := 0; attempt < c.options.MaxRetries; attempt++ {
		conn, err := c.dial(ctx)
		if err == nil {
			runCtx, cancel := context.WithCancel(context.Background())
			c.conn = conn
			c.cancel = cancel
			go c.readPump()
			go c.pingLoop(runCtx)
			return nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}

		retryDelay := time.Duration(attempt+1) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("%w: dial failed after %d retries: %v", ErrTransportUnavailable, c.options.MaxRetries, lastErr)
}

func (c *WebsocketClient) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: c.options.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
		return nil
	})

	return conn, nil
}

// SendFrame emits a frame event. Failures surface as ErrTransportUnavailable;
// the frame is simply dropped.
func (c *WebsocketClient) SendFrame(frame Frame) error {
	if c.conn == nil {
		return ErrTransportUnavailable
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	msg := envelope{
		Event:     eventFrame,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	return nil
}

// Samples yields decoded emotion events.
func (c *WebsocketClient) Samples() <-chan InboundSample {
	return c.samples
}

// readPump decodes inbound envelopes until the connection ends, then closes
// the sample channel.
func (c *WebsocketClient) readPump() {
	defer c.closeSamples()

	for {
		var msg envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[transport] read error: %v", err)
			}
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))

		if msg.Event != eventEmotion {
			continue
		}

		var sample InboundSample
		if err := json.Unmarshal(msg.Data, &sample); err != nil {
			log.Printf("[transport] dropping malformed emotion payload: %v", err)
			continue
		}
		if sample.Timestamp == 0 {
			sample.Timestamp = msg.Timestamp
		}

		c.samples <- sample
	}
}

func (c *WebsocketClient) closeSamples() {
	c.closed.Do(func() {
		close(c.samples)
	})
}

// pingLoop keeps the connection alive until the client closes.
func (c *WebsocketClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.options.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close tears down the connection. Safe to call when never connected.
func (c *WebsocketClient) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	c.closeSamples()
	return nil
}
