// Package capture supplies raw video frames to the session scheduler and
// downsamples them for the inference service.
package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Target resolution for frames sent to the inference service. The ViT model
// upstream expects roughly 224x224 input.
const (
	TargetWidth  = 224
	TargetHeight = 224
)

// ErrNoFrame reports that no live frame was available at tick time. The
// scheduler treats this as a silent skip, not an error.
var ErrNoFrame = errors.New("no live frame available")

// Frame is one raw captured video frame.
type Frame struct {
	Image     image.Image
	Timestamp int64
}

// Source is the video capture collaborator.
type Source interface {
	// Grab returns the current frame or ErrNoFrame when nothing is live.
	Grab(ctx context.Context) (*Frame, error)
}

// EncodeDataURL downsamples the frame to the target resolution and returns
// it as a base64 JPEG data URL, the format the inference service expects.
func EncodeDataURL(img image.Image) (string, error) {
	scaled := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SyntheticSource produces flat gray frames. It stands in for a real video
// source in the daemon's default wiring and in tests.
type SyntheticSource struct {
	Clock func() int64
}

// Grab returns a synthetic frame stamped by the configured clock.
func (s *SyntheticSource) Grab(_ context.Context) (*Frame, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, gray)
		}
	}

	ts := int64(0)
	if s.Clock != nil {
		ts = s.Clock()
	}
	return &Frame{Image: img, Timestamp: ts}, nil
}
