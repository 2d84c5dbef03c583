// Package transport carries the event channel between a session and the
// remote inference service: frames go out, classification samples come back.
// Frames and samples are not correlated by request id; callers must treat
// the inbound stream as ordered by arrival only.
package transport

import (
	"context"
	"errors"
)

// ErrTransportUnavailable reports a failed send or dial. The caller drops
// the frame and keeps ticking; no queueing happens here.
var ErrTransportUnavailable = errors.New("transport unavailable")

// Frame is the outbound payload for one captured video frame. Img is an
// encoded image (data URL) ready for the inference service.
type Frame struct {
	Img       string `json:"img"`
	Timestamp int64  `json:"timestamp"`
}

// InboundSample is one classification result as received off the wire.
// Confidence is nil when the service omitted it.
type InboundSample struct {
	Emotions   map[string]float64 `json:"emotions"`
	Confidence *float64           `json:"confidence,omitempty"`
	Timestamp  int64              `json:"timestamp"`
}

// Client is the bidirectional event channel to the inference service.
type Client interface {
	// Connect establishes the channel. It must be called before SendFrame.
	Connect(ctx context.Context) error
	// SendFrame emits a frame event, fire-and-forget.
	SendFrame(frame Frame) error
	// Samples yields inbound classification results. The channel closes
	// when the connection ends.
	Samples() <-chan InboundSample
	// Close tears the channel down.
	Close() error
}
