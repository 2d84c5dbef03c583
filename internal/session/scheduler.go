package session

import (
	"context"
	"log"
	"time"

	"github.com/neurolens/agent/internal/capture"
	"github.com/neurolens/agent/internal/transport"
)

// analyzingDisplay is how long the cosmetic analyzing flag stays raised
// after a tick.
const analyzingDisplay = 1500 * time.Millisecond

// runScheduler fires capture ticks at the configured interval until the
// session stops. Ticks are independent and fire-and-forget: no tick waits
// for a prior classification, and there is no in-flight limit.
func (c *Controller) runScheduler(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(c.cfg.IntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.captureTick(ctx)
		}
	}
}

// captureTick grabs one frame, downsamples it, and sends it. No live frame
// means a silent skip. A send failure drops the frame, raises one warning
// notification, and leaves the ticker running.
func (c *Controller) captureTick(ctx context.Context) {
	frame, err := c.source.Grab(ctx)
	if err != nil || frame == nil {
		return
	}

	c.raiseAnalyzing()

	img, err := capture.EncodeDataURL(frame.Image)
	if err != nil {
		log.Printf("[scheduler] frame encode failed: %v", err)
		return
	}

	timestamp := frame.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	if err := c.client.SendFrame(transport.Frame{Img: img, Timestamp: timestamp}); err != nil {
		c.noteTransportFailure(err)
		return
	}
	c.clearTransportFailure()
}

// raiseAnalyzing sets the cosmetic flag for a fixed display duration.
func (c *Controller) raiseAnalyzing() {
	c.mu.Lock()
	c.analyzing = true
	c.mu.Unlock()

	time.AfterFunc(analyzingDisplay, func() {
		c.mu.Lock()
		c.analyzing = false
		c.mu.Unlock()
	})
}

// noteTransportFailure surfaces a single user-visible warning per outage.
func (c *Controller) noteTransportFailure(err error) {
	c.mu.Lock()
	alreadyDown := c.transportDown
	c.transportDown = true
	c.mu.Unlock()

	if alreadyDown {
		return
	}

	log.Printf("[scheduler] transport send failed, dropping frames: %v", err)
	c.notifier.Publish("Connection to analysis service lost", "warning")
}

func (c *Controller) clearTransportFailure() {
	c.mu.Lock()
	c.transportDown = false
	c.mu.Unlock()
}
