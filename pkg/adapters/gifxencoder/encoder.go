// Package gifxencoder implements ports.GifEncoder over the streaming GIF
// codec from github.com/NathanBaulch/gifx.
package gifxencoder

import (
	"bufio"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"math"
	"time"

	"github.com/NathanBaulch/gifx"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// maxDelay caps a single frame delay at 300 seconds, the same cap gifski
// applies to tolerate broken timestamps.
const maxDelay = 30000

// Encoder streams frames into a GIF byte stream. Frames are buffered one
// deep so each frame's delay can be derived from the next frame's
// presentation timestamp.
type Encoder struct {
	settings ports.EncoderSettings

	out *chunkWriter
	buf *bufio.Writer
	enc *gif.Encoder

	progressFn ports.ProgressFunc
	writeFn    ports.WriteFunc

	pending       *bufferedFrame
	prevPTS       float64
	delayUnits    int64
	headerWritten bool
	nextIndex     int
	stopped       bool
	released      bool
}

type bufferedFrame struct {
	image *image.Paletted
	pts   float64
}

// New creates an encoder for the given settings. Settings with missing
// dimensions or an out-of-range quality are rejected.
func New(settings ports.EncoderSettings) (*Encoder, error) {
	if settings.Width <= 0 || settings.Height <= 0 {
		return nil, fmt.Errorf("dimensions %dx%d not encodable", settings.Width, settings.Height)
	}
	if settings.Quality < 1 || settings.Quality > 100 {
		return nil, fmt.Errorf("quality %d out of range 1-100", settings.Quality)
	}

	out := &chunkWriter{}
	buf := bufio.NewWriter(out)
	return &Encoder{
		settings: settings,
		out:      out,
		buf:      buf,
		enc:      gif.NewEncoder(buf),
	}, nil
}

// SetProgressFunc registers the per-frame progress callback.
func (e *Encoder) SetProgressFunc(fn ports.ProgressFunc) {
	e.progressFn = fn
}

// SetWriteFunc registers the output chunk callback.
func (e *Encoder) SetWriteFunc(fn ports.WriteFunc) {
	e.out.fn = fn
}

// AddFrame quantizes one RGBA frame and submits it to the stream. Frames
// must arrive with contiguous indices starting at 0.
func (e *Encoder) AddFrame(frame ports.FrameRecord) error {
	if e.released {
		return fmt.Errorf("encoder released")
	}
	if e.stopped {
		return fmt.Errorf("encode stopped")
	}
	if frame.Index != e.nextIndex {
		return fmt.Errorf("frame index %d out of order, expected %d", frame.Index, e.nextIndex)
	}
	e.nextIndex++

	paletted, err := e.quantize(frame.Pixels)
	if err != nil {
		return err
	}

	if err := e.flushPending(frame.Timestamp); err != nil {
		return err
	}
	e.pending = &bufferedFrame{image: paletted, pts: frame.Timestamp}

	if e.progressFn != nil && !e.progressFn() {
		e.stopped = true
		return fmt.Errorf("encode stopped")
	}
	return nil
}

// Finish writes the buffered last frame, the trailer and flushes all
// remaining output through the write callback.
func (e *Encoder) Finish() error {
	if e.released {
		return fmt.Errorf("encoder released")
	}

	if e.pending != nil {
		// No next timestamp for the last frame; assume a steady rate
		// and reuse the previous inter-frame gap.
		end := e.pending.pts + (e.pending.pts - e.prevPTS)
		if err := e.flushPending(end); err != nil {
			return err
		}
	}

	if e.headerWritten {
		if err := e.enc.WriteTrailer(); err != nil {
			return fmt.Errorf("write trailer: %w", err)
		}
		if err := e.enc.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	if err := e.buf.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return e.out.err
}

// Release disposes the encoder. Further calls are rejected but safe.
func (e *Encoder) Release() {
	e.released = true
	e.pending = nil
	e.enc = nil
}

// flushPending writes the buffered frame with a delay running up to endPTS.
// Frames whose rounded delay is zero are skipped, matching how gifski drops
// bad-pts frames; they still counted toward progress when submitted.
func (e *Encoder) flushPending(endPTS float64) error {
	if e.pending == nil {
		return nil
	}
	frame := e.pending
	e.pending = nil

	delay := int64(math.Round(endPTS*100)) - e.delayUnits
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay <= 0 {
		e.prevPTS = frame.pts
		return nil
	}
	e.delayUnits += delay

	if !e.headerWritten {
		cfg := image.Config{
			Width:      e.settings.Width,
			Height:     e.settings.Height,
			ColorModel: frame.image.Palette,
		}
		if err := e.enc.WriteHeader(cfg, 0); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := e.enc.WriteApplicationNetscape(&gif.ApplicationNetscape{LoopCount: int(e.settings.LoopCount)}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		e.headerWritten = true
	}

	if err := e.enc.WriteFrame(&gif.Frame{Image: frame.image, DelayTime: time.Duration(delay) * 10 * time.Millisecond}); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	e.prevPTS = frame.pts
	return nil
}

// quantize maps a raw RGBA buffer onto a 256-color palette. High quality
// settings get error-diffusion dithering; fast mode and low quality use
// plain nearest-color mapping.
func (e *Encoder) quantize(pixels ports.PixelBuffer) (*image.Paletted, error) {
	if pixels.Width != e.settings.Width || pixels.Height != e.settings.Height {
		return nil, fmt.Errorf("frame size %dx%d does not match %dx%d",
			pixels.Width, pixels.Height, e.settings.Width, e.settings.Height)
	}
	if pixels.BytesPerRow < pixels.Width*4 || len(pixels.Data) < pixels.BytesPerRow*pixels.Height {
		return nil, fmt.Errorf("pixel buffer too short: %d bytes for %dx%d stride %d",
			len(pixels.Data), pixels.Width, pixels.Height, pixels.BytesPerRow)
	}

	src := &image.NRGBA{
		Pix:    pixels.Data,
		Stride: pixels.BytesPerRow,
		Rect:   image.Rect(0, 0, pixels.Width, pixels.Height),
	}

	dst := image.NewPaletted(src.Rect, palette.Plan9)
	if e.dither() {
		draw.FloydSteinberg.Draw(dst, src.Rect, src, image.Point{})
	} else {
		draw.Draw(dst, src.Rect, src, image.Point{}, draw.Src)
	}
	return dst, nil
}

// dither reports whether error diffusion is worth the cost. The color
// quality is derived from the overall quality the same way gifski does.
func (e *Encoder) dither() bool {
	if e.settings.Fast {
		return false
	}
	colorQuality := e.settings.Quality * 4 / 3
	if colorQuality > 100 {
		colorQuality = 100
	}
	return colorQuality >= 50
}

// chunkWriter forwards written bytes to the registered write callback.
type chunkWriter struct {
	fn  ports.WriteFunc
	err error
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if w.fn == nil {
		return len(p), nil
	}
	if err := w.fn(p); err != nil {
		w.err = err
		return 0, err
	}
	return len(p), nil
}

var _ ports.GifEncoder = (*Encoder)(nil)
