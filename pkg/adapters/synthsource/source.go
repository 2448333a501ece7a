// Package synthsource implements ports.FrameSource with synthetically
// rendered test-card frames. It backs the selftest command and tests that
// need a real frame stream without decoding a video file.
package synthsource

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// Source renders frames instead of decoding them. The virtual video has a
// fixed duration, frame rate and size.
type Source struct {
	Info ports.VideoInfo
}

// New creates a synthetic source describing a 10 second 30 fps clip.
func New() *Source {
	return &Source{
		Info: ports.VideoInfo{
			TrackRange: ports.TimeRange{Start: 0, Duration: 10},
			FPS:        30,
			Width:      320,
			Height:     240,
		},
	}
}

// Probe implements ports.FrameSource.
func (s *Source) Probe(ctx context.Context, source string) (ports.VideoInfo, error) {
	return s.Info, nil
}

// GenerateFrames implements ports.FrameSource.
func (s *Source) GenerateFrames(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
	if len(req.Timestamps) == 0 {
		return nil, fmt.Errorf("no timestamps requested")
	}

	ch := make(chan ports.FrameDelivery)
	go func() {
		defer close(ch)
		total := len(req.Timestamps)
		for i, ts := range req.Timestamps {
			if ctx.Err() != nil {
				return
			}
			delivery := ports.FrameDelivery{
				Index:      i,
				ActualTime: ts,
				Total:      total,
				Image:      s.render(ts),
				IsLast:     i == total-1,
			}
			select {
			case ch <- delivery:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// render draws one test-card frame: a hue-shifting background, a block
// sweeping left to right over the clip, and the timestamp.
func (s *Source) render(ts float64) image.Image {
	w, h := s.Info.Width, s.Info.Height
	dc := gg.NewContext(w, h)

	phase := ts / s.Info.TrackRange.Duration
	dc.SetRGB(0.1+0.4*phase, 0.2, 0.6-0.4*phase)
	dc.Clear()

	blockW := float64(w) / 8
	x := (float64(w) - blockW) * phase
	y := float64(h)/2 + math.Sin(ts*2*math.Pi)*float64(h)/6
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(x, y-blockW/2, blockW, blockW)
	dc.Fill()

	dc.SetRGB(1, 1, 0.2)
	dc.DrawStringAnchored(fmt.Sprintf("%.2fs", ts), float64(w)/2, float64(h)/8, 0.5, 0.5)

	return dc.Image()
}

var _ ports.FrameSource = (*Source)(nil)
