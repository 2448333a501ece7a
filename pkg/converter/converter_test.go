package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/Peterliu358/Gifski/pkg/adapters/logger"
	"github.com/Peterliu358/Gifski/pkg/mocks"
	"github.com/Peterliu358/Gifski/pkg/ports"
	"github.com/Peterliu358/Gifski/pkg/timing"
)

const (
	testWidth  = 32
	testHeight = 24
)

func testInfo() ports.VideoInfo {
	return ports.VideoInfo{
		TrackRange: ports.TimeRange{Start: 0, Duration: 1},
		FPS:        4,
		Width:      testWidth,
		Height:     testHeight,
	}
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, testWidth, testHeight))
}

// streamingSource returns a mock source that delivers one frame per planned
// timestamp, honoring context cancellation.
func streamingSource(info ports.VideoInfo) *mocks.FrameSource {
	return &mocks.FrameSource{
		ProbeFunc: func(ctx context.Context, source string) (ports.VideoInfo, error) {
			return info, nil
		},
		GenerateFramesFunc: func(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
			ch := make(chan ports.FrameDelivery)
			go func() {
				defer close(ch)
				total := len(req.Timestamps)
				for i, ts := range req.Timestamps {
					d := ports.FrameDelivery{
						Index:      i,
						ActualTime: ts,
						Total:      total,
						Image:      testImage(),
						IsLast:     i == total-1,
					}
					select {
					case ch <- d:
					case <-ctx.Done():
						return
					}
				}
			}()
			return ch, nil
		},
	}
}

// chunkEmittingEncoder wires a mock encoder that emits one output chunk per
// frame and a trailer chunk on Finish.
func chunkEmittingEncoder() (*mocks.GifEncoder, func(ports.EncoderSettings) (ports.GifEncoder, error)) {
	enc := &mocks.GifEncoder{}
	enc.AddFrameFunc = func(frame ports.FrameRecord) error {
		return enc.Write([]byte(fmt.Sprintf("chunk%d;", frame.Index)))
	}
	enc.FinishFunc = func() error {
		return enc.Write([]byte("trailer"))
	}
	factory := func(settings ports.EncoderSettings) (ports.GifEncoder, error) {
		return enc, nil
	}
	return enc, factory
}

func TestRun_Success(t *testing.T) {
	enc, factory := chunkEmittingEncoder()
	c := New(streamingSource(testInfo()), factory, logger.NewNoop())

	result, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 0.8}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1s at 4 fps plans 4 frames.
	if len(enc.Frames) != 4 {
		t.Fatalf("submitted frames: expected 4, got %d", len(enc.Frames))
	}
	for i, frame := range enc.Frames {
		if frame.Index != i {
			t.Errorf("frame %d: index %d not contiguous", i, frame.Index)
		}
		if frame.Pixels.Width != testWidth || frame.Pixels.Height != testHeight {
			t.Errorf("frame %d: dimensions %dx%d", i, frame.Pixels.Width, frame.Pixels.Height)
		}
		if frame.Timestamp < 0 {
			t.Errorf("frame %d: negative timestamp %v", i, frame.Timestamp)
		}
	}

	// The output is the exact in-order concatenation of all chunks.
	expected := []byte("chunk0;chunk1;chunk2;chunk3;trailer")
	if !bytes.Equal(result.Data, expected) {
		t.Errorf("output: expected %q, got %q", expected, result.Data)
	}
	if result.Multiplier != 1 {
		t.Errorf("multiplier: expected 1, got %v", result.Multiplier)
	}

	if enc.FinishCalls != 1 {
		t.Errorf("finish calls: expected 1, got %d", enc.FinishCalls)
	}
	if enc.ReleaseCalls != 1 {
		t.Errorf("release calls: expected 1, got %d", enc.ReleaseCalls)
	}
}

func TestRun_ProbeFailure(t *testing.T) {
	source := &mocks.FrameSource{
		ProbeFunc: func(ctx context.Context, src string) (ports.VideoInfo, error) {
			return ports.VideoInfo{}, errors.New("no video track")
		},
	}
	c := New(source, nil, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "broken.mp4", Quality: 1}, false)
	var unreadable *UnreadableFileError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableFileError, got %v", err)
	}
}

func TestRun_NotEnoughFrames(t *testing.T) {
	info := testInfo()
	info.TrackRange.Duration = 0.9
	fps := 2.0
	c := New(streamingSource(info), nil, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "short.mp4", Quality: 1, FPS: &fps}, false)
	var notEnough *timing.NotEnoughFramesError
	if !errors.As(err, &notEnough) {
		t.Fatalf("expected NotEnoughFramesError, got %v", err)
	}
	if notEnough.FrameCount != 1 {
		t.Errorf("frame count: expected 1, got %d", notEnough.FrameCount)
	}
}

func TestRun_EncoderConstructionFailure(t *testing.T) {
	factory := func(settings ports.EncoderSettings) (ports.GifEncoder, error) {
		return nil, errors.New("zero dimensions")
	}
	c := New(streamingSource(testInfo()), factory, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	var invalid *InvalidSettingsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidSettingsError, got %v", err)
	}
}

func TestRun_FrameErrorAbortsAndFinalizes(t *testing.T) {
	info := testInfo()
	source := &mocks.FrameSource{
		ProbeFunc: func(ctx context.Context, src string) (ports.VideoInfo, error) {
			return info, nil
		},
		GenerateFramesFunc: func(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
			ch := make(chan ports.FrameDelivery, 2)
			ch <- ports.FrameDelivery{Index: 0, Image: testImage(), Total: len(req.Timestamps)}
			ch <- ports.FrameDelivery{Index: 1, Err: errors.New("decode failed")}
			close(ch)
			return ch, nil
		},
	}

	enc := &mocks.GifEncoder{
		// A finish error after the frame failure must be swallowed; the
		// earlier error stays authoritative.
		FinishFunc: func() error { return errors.New("flush failed") },
	}
	c := New(source, func(ports.EncoderSettings) (ports.GifEncoder, error) { return enc, nil }, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	var genErr *GenerateFrameFailedError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerateFrameFailedError, got %v", err)
	}
	if enc.FinishCalls != 1 || enc.ReleaseCalls != 1 {
		t.Errorf("finish/release: expected 1/1, got %d/%d", enc.FinishCalls, enc.ReleaseCalls)
	}
}

func TestRun_AddFrameFailure(t *testing.T) {
	enc := &mocks.GifEncoder{
		AddFrameFunc: func(frame ports.FrameRecord) error {
			if frame.Index == 1 {
				return errors.New("encoder rejected frame")
			}
			return nil
		},
	}
	c := New(streamingSource(testInfo()), func(ports.EncoderSettings) (ports.GifEncoder, error) { return enc, nil }, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	var addErr *AddFrameFailedError
	if !errors.As(err, &addErr) {
		t.Fatalf("expected AddFrameFailedError, got %v", err)
	}
	if enc.FinishCalls != 1 || enc.ReleaseCalls != 1 {
		t.Errorf("finish/release: expected 1/1, got %d/%d", enc.FinishCalls, enc.ReleaseCalls)
	}
}

func TestRun_FinishFailureOnSuccessPath(t *testing.T) {
	enc := &mocks.GifEncoder{
		FinishFunc: func() error { return errors.New("disk full") },
	}
	c := New(streamingSource(testInfo()), func(ports.EncoderSettings) (ports.GifEncoder, error) { return enc, nil }, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	var writeErr *WriteFailedError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteFailedError, got %v", err)
	}
	if enc.ReleaseCalls != 1 {
		t.Errorf("release calls: expected 1, got %d", enc.ReleaseCalls)
	}
}

func TestRun_CancelBeforeRun(t *testing.T) {
	enc, factory := chunkEmittingEncoder()
	c := New(streamingSource(testInfo()), factory, logger.NewNoop())

	c.Cancel()
	c.Cancel() // idempotent

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(enc.Frames) != 0 {
		t.Errorf("expected no frames processed, got %d", len(enc.Frames))
	}
}

func TestRun_CancelDuringFrames(t *testing.T) {
	enc := &mocks.GifEncoder{}
	c := New(streamingSource(testInfo()), func(ports.EncoderSettings) (ports.GifEncoder, error) { return enc, nil }, logger.NewNoop())

	enc.AddFrameFunc = func(frame ports.FrameRecord) error {
		if frame.Index == 1 {
			c.Cancel()
		}
		return nil
	}

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(enc.Frames) > 2 {
		t.Errorf("expected at most 2 frames before cancellation, got %d", len(enc.Frames))
	}
	if enc.FinishCalls != 1 || enc.ReleaseCalls != 1 {
		t.Errorf("finish/release: expected 1/1, got %d/%d", enc.FinishCalls, enc.ReleaseCalls)
	}
}

func TestRun_CancelRacingSuccess(t *testing.T) {
	// Cancellation lands after the last frame was accepted but before the
	// completion latch; the externally visible result must be Cancelled.
	enc := &mocks.GifEncoder{}
	c := New(streamingSource(testInfo()), func(ports.EncoderSettings) (ports.GifEncoder, error) { return enc, nil }, logger.NewNoop())

	enc.FinishFunc = func() error {
		c.Cancel()
		return nil
	}

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if enc.FinishCalls != 1 || enc.ReleaseCalls != 1 {
		t.Errorf("finish/release: expected 1/1, got %d/%d", enc.FinishCalls, enc.ReleaseCalls)
	}
}

func TestRun_MissingLastFrameTolerated(t *testing.T) {
	info := testInfo()
	source := &mocks.FrameSource{
		ProbeFunc: func(ctx context.Context, src string) (ports.VideoInfo, error) {
			return info, nil
		},
		GenerateFramesFunc: func(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
			total := len(req.Timestamps)
			ch := make(chan ports.FrameDelivery, total)
			for i := 0; i < total-1; i++ {
				ch <- ports.FrameDelivery{Index: i, ActualTime: req.Timestamps[i], Total: total, Image: testImage()}
			}
			// The final frame could not be decoded; the stream still
			// finalizes.
			ch <- ports.FrameDelivery{Index: total - 1, Total: total, IsLast: true}
			close(ch)
			return ch, nil
		},
	}

	enc, factory := chunkEmittingEncoder()
	c := New(source, factory, logger.NewNoop())

	result, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enc.Frames) != 3 {
		t.Errorf("submitted frames: expected 3, got %d", len(enc.Frames))
	}
	if !bytes.HasSuffix(result.Data, []byte("trailer")) {
		t.Errorf("output not finalized: %q", result.Data)
	}
}

func TestRun_MissingEarlierFrameFails(t *testing.T) {
	info := testInfo()
	source := &mocks.FrameSource{
		ProbeFunc: func(ctx context.Context, src string) (ports.VideoInfo, error) {
			return info, nil
		},
		GenerateFramesFunc: func(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
			ch := make(chan ports.FrameDelivery, 1)
			ch <- ports.FrameDelivery{Index: 0, Total: len(req.Timestamps)}
			close(ch)
			return ch, nil
		},
	}

	_, factory := chunkEmittingEncoder()
	c := New(source, factory, logger.NewNoop())

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	var genErr *GenerateFrameFailedError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerateFrameFailedError, got %v", err)
	}
}

func TestRun_EstimationMultiplier(t *testing.T) {
	info := testInfo()
	info.TrackRange.Duration = 10
	fps := 4.0 // 40 planned frames

	enc, factory := chunkEmittingEncoder()
	c := New(streamingSource(info), factory, logger.NewNoop())

	result, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1, FPS: &fps}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(enc.Frames) != 25 {
		t.Errorf("sampled frames: expected 25, got %d", len(enc.Frames))
	}
	if result.Multiplier != 1.6 {
		t.Errorf("multiplier: expected 1.6, got %v", result.Multiplier)
	}
}

func TestRun_ProgressReporting(t *testing.T) {
	_, factory := chunkEmittingEncoder()
	c := New(streamingSource(testInfo()), factory, logger.NewNoop())

	var mu sync.Mutex
	var completed []int
	total := 0
	c.OnProgress = func(done, tot int) {
		mu.Lock()
		defer mu.Unlock()
		completed = append(completed, done)
		total = tot
	}

	_, err := c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(completed) != 4 {
		t.Fatalf("progress calls: expected 4, got %d", len(completed))
	}
	for i, done := range completed {
		if done != i+1 {
			t.Errorf("progress[%d]: expected %d, got %d", i, i+1, done)
		}
	}
	if total != 4 {
		t.Errorf("total: expected 4, got %d", total)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	info := testInfo()
	started := make(chan struct{})
	source := &mocks.FrameSource{
		ProbeFunc: func(ctx context.Context, src string) (ports.VideoInfo, error) {
			return info, nil
		},
		GenerateFramesFunc: func(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
			ch := make(chan ports.FrameDelivery)
			go func() {
				defer close(ch)
				close(started)
				// Deliver nothing until the context is cancelled.
				<-ctx.Done()
			}()
			return ch, nil
		},
	}

	enc, factory := chunkEmittingEncoder()
	c := New(source, factory, logger.NewNoop())

	go func() {
		<-started
		c.Cancel()
	}()

	done := make(chan struct{})
	var err error
	go func() {
		_, err = c.Run(context.Background(), Request{Source: "test.mp4", Quality: 1}, false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete after cancellation")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if enc.FinishCalls != 1 || enc.ReleaseCalls != 1 {
		t.Errorf("finish/release: expected 1/1, got %d/%d", enc.FinishCalls, enc.ReleaseCalls)
	}
}
