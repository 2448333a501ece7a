// Package mp4source implements ports.FrameSource for MP4 files: track
// metadata is probed with mp4ff and frames are extracted by driving an
// ffmpeg process per sampled timestamp.
package mp4source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"

	"github.com/ideamans/go-l10n"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// Source reads frames from MP4 files on disk.
type Source struct {
	ffmpegPath string
	logger     ports.Logger
}

// New creates a Source. It fails when no ffmpeg binary can be located.
func New(logger ports.Logger) (*Source, error) {
	path, err := findFFmpeg()
	if err != nil {
		return nil, err
	}
	return &Source{
		ffmpegPath: path,
		logger:     logger.WithComponent("mp4source"),
	}, nil
}

// Probe implements ports.FrameSource.
func (s *Source) Probe(ctx context.Context, source string) (ports.VideoInfo, error) {
	s.logger.Debug(l10n.F("Probing %s", source))
	info, err := probeFile(source)
	if err != nil {
		return ports.VideoInfo{}, err
	}
	s.logger.Debug(l10n.F("Video track: %.1fs at %.1f fps", info.TrackRange.Duration, info.FPS))
	return info, nil
}

// GenerateFrames implements ports.FrameSource. Frames are delivered in
// timestamp order on the returned channel; cancelling ctx stops extraction
// before the next frame and closes the channel.
func (s *Source) GenerateFrames(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
	if len(req.Timestamps) == 0 {
		return nil, fmt.Errorf("no timestamps requested")
	}

	ch := make(chan ports.FrameDelivery)
	go s.extract(ctx, req, ch)
	return ch, nil
}

func (s *Source) extract(ctx context.Context, req ports.GenerateRequest, ch chan<- ports.FrameDelivery) {
	defer close(ch)

	total := len(req.Timestamps)
	s.logger.Debug(l10n.F("Extracting %d frames", total))

	for i, ts := range req.Timestamps {
		if ctx.Err() != nil {
			return
		}

		last := i == total-1
		img, err := s.extractFrame(ctx, req.Source, ts, req.MaxDimension)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if last {
				// A failed final frame still ends the stream cleanly;
				// the consumer finalizes without it.
				s.deliver(ctx, ch, ports.FrameDelivery{
					Index:      i,
					ActualTime: ts,
					Total:      total,
					IsLast:     true,
				})
				return
			}
			s.deliver(ctx, ch, ports.FrameDelivery{
				Index: i,
				Total: total,
				Err:   fmt.Errorf("extract frame at %.3fs: %w", ts, err),
			})
			return
		}

		s.logger.Debug(l10n.F("Frame %d/%d extracted", i+1, total))
		if !s.deliver(ctx, ch, ports.FrameDelivery{
			Index:      i,
			ActualTime: ts,
			Total:      total,
			Image:      img,
			IsLast:     last,
		}) {
			return
		}
	}
}

func (s *Source) deliver(ctx context.Context, ch chan<- ports.FrameDelivery, d ports.FrameDelivery) bool {
	select {
	case ch <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// extractFrame decodes the frame nearest to ts into a PNG on stdout.
func (s *Source) extractFrame(ctx context.Context, source string, ts float64, maxDimension int) (image.Image, error) {
	args := []string{
		"-ss", strconv.FormatFloat(ts, 'f', 6, 64),
		"-i", source,
		"-frames:v", "1",
	}
	if maxDimension > 0 {
		// Shrink-only scale preserving aspect ratio.
		scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", maxDimension, maxDimension)
		args = append(args, "-vf", scale)
	}
	args = append(args, "-f", "image2", "-c:v", "png", "pipe:1")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w\nstderr: %s", err, stderr.String())
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

var _ ports.FrameSource = (*Source)(nil)
