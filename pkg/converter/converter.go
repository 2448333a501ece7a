// Package converter coordinates a single video-to-GIF conversion: it plans
// sample timestamps, drives the encoder lifecycle, reacts to asynchronous
// frame arrivals and guarantees exactly-once delivery of a final result.
package converter

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ideamans/go-l10n"

	"github.com/Peterliu358/Gifski/pkg/ports"
	"github.com/Peterliu358/Gifski/pkg/timing"
)

// Request describes one conversion. It is immutable once submitted.
type Request struct {
	// Source identifies the video to convert.
	Source string
	// From and To bound the converted time range in seconds. Nil means
	// the start or end of the video track.
	From *float64
	To   *float64
	// Quality is 0-1.
	Quality float64
	// Width and Height are the target dimensions; 0 keeps the source
	// size, shrunk for very large sources.
	Width  int
	Height int
	// FPS overrides the output frame rate; nil uses the source rate.
	FPS *float64
	// LoopCount sets GIF repetition; nil or 0 loops forever.
	LoopCount *int16
}

// Result is the successful outcome of a conversion.
type Result struct {
	// Data is the GIF byte stream, the in-order concatenation of every
	// chunk the encoder emitted.
	Data []byte
	// Multiplier extrapolates the full output size from an estimation
	// run. It is 1 for normal runs.
	Multiplier float64
}

// EncoderFactory constructs the encoder for one conversion.
type EncoderFactory func(ports.EncoderSettings) (ports.GifEncoder, error)

// Converter runs one conversion. Create a new Converter per run; it owns
// its encoder instance for the lifetime of that run.
type Converter struct {
	source     ports.FrameSource
	newEncoder EncoderFactory
	logger     ports.Logger

	// OnProgress, when set before Run, is invoked after each completed
	// encode step with the running completed and total frame counts.
	OnProgress func(completed, total int)

	cancelled atomic.Bool
	abort     atomic.Value // context.CancelFunc
	done      atomic.Bool
}

// New creates a Converter reading frames from source and encoding through
// encoders built by newEncoder.
func New(source ports.FrameSource, newEncoder EncoderFactory, logger ports.Logger) *Converter {
	return &Converter{
		source:     source,
		newEncoder: newEncoder,
		logger:     logger,
	}
}

// Cancel requests cooperative cancellation. It is idempotent, safe from any
// goroutine, and has no effect once the run has completed. In-flight native
// work is not interrupted; no new work starts after the flag is observed.
func (c *Converter) Cancel() {
	c.cancelled.Store(true)
	if f, ok := c.abort.Load().(context.CancelFunc); ok && f != nil {
		f()
	}
}

// Run executes the conversion and blocks until a single terminal outcome
// is available. The pipeline itself runs on internal goroutines; Run only
// waits, so cancelling ctx or calling Cancel stops it promptly.
//
// With estimation set, a reduced subset of frames is converted and the
// result carries a size-extrapolation multiplier.
func (c *Converter) Run(ctx context.Context, req Request, estimation bool) (*Result, error) {
	runID := uuid.NewString()[:8]
	log := c.logger.WithComponent("convert-" + runID)

	if c.cancelled.Load() {
		return nil, ErrCancelled
	}

	info, err := c.source.Probe(ctx, req.Source)
	if err != nil {
		log.Error(l10n.F("Failed to read video: %s", err))
		return nil, &UnreadableFileError{Cause: err}
	}

	plan, err := timing.NewPlan(timing.PlanRequest{
		Info:  info,
		FPS:   req.FPS,
		Range: requestedRange(req),
	})
	if err != nil {
		return nil, err
	}

	timestamps := plan.Timestamps
	multiplier := 1.0
	if estimation {
		timestamps, multiplier = timing.SampleForEstimation(timestamps)
		log.Debug(l10n.F("Estimation run: %d of %d frames, multiplier %.2f", len(timestamps), plan.FrameCount(), multiplier))
	}

	width, height := targetDimensions(info.Width, info.Height, req.Width, req.Height)
	settings := ports.EncoderSettings{
		Width:     width,
		Height:    height,
		Quality:   qualityPercent(req.Quality),
		Fast:      estimation,
		LoopCount: loopCount(req.LoopCount),
	}

	enc, err := c.newEncoder(settings)
	if err != nil {
		log.Error(l10n.F("Failed to create encoder: %s", err))
		return nil, &InvalidSettingsError{Cause: err}
	}

	frameCtx, stopFrames := context.WithCancel(ctx)
	defer stopFrames()
	c.abort.Store(context.CancelFunc(stopFrames))
	if c.cancelled.Load() {
		stopFrames()
	}

	state := &runState{
		conv:       c,
		enc:        enc,
		log:        log,
		width:      width,
		height:     height,
		start:      plan.Range.Start,
		multiplier: multiplier,
		resultCh:   make(chan outcome, 1),
	}
	state.total.Store(int64(len(timestamps)))

	enc.SetProgressFunc(state.onEncodeStep)
	enc.SetWriteFunc(state.onChunk)

	log.Info(l10n.F("Converting %d frames at %.1f fps (%dx%d)", len(timestamps), plan.EffectiveFPS, width, height))

	deliveries, err := c.source.GenerateFrames(frameCtx, ports.GenerateRequest{
		Source:       req.Source,
		Timestamps:   timestamps,
		Tolerance:    plan.Tolerance,
		MaxDimension: maxInt(width, height),
	})
	if err != nil {
		state.finish(&GenerateFrameFailedError{Cause: err})
	} else {
		go state.consume(deliveries)
	}

	out := <-state.resultCh
	if out.err != nil {
		return nil, out.err
	}
	log.Info(l10n.F("Conversion completed: %d bytes", len(out.result.Data)))
	return out.result, nil
}

type outcome struct {
	result *Result
	err    error
}

// runState is the per-run mutable state. The frame consumer goroutine is
// the only writer of encoder state and the output buffer; the encoder's
// own callbacks are sequential by contract, so the completion latch is the
// only synchronization needed.
type runState struct {
	conv *Converter
	enc  ports.GifEncoder
	log  ports.Logger

	width  int
	height int
	start  float64

	multiplier float64
	output     []byte
	nextIndex  int

	completed    atomic.Int64
	total        atomic.Int64
	totalRevised bool

	resultCh chan outcome
}

func (s *runState) consume(deliveries <-chan ports.FrameDelivery) {
	for d := range deliveries {
		if s.conv.cancelled.Load() {
			s.finish(ErrCancelled)
			return
		}
		if d.Err != nil {
			s.finish(&GenerateFrameFailedError{Cause: d.Err})
			return
		}
		if d.Total > 0 {
			s.reviseTotal(d.Total)
		}
		if d.Image == nil {
			if d.IsLast {
				// The final frame failed to decode but the stream
				// is otherwise complete; finalize as success.
				s.log.Warn(l10n.T("Last frame missing, finalizing anyway"))
				s.finish(nil)
				return
			}
			s.finish(&GenerateFrameFailedError{Cause: fmt.Errorf("frame %d has no image", d.Index)})
			return
		}

		pixels, err := extractPixels(d.Image, s.width, s.height)
		if err != nil {
			s.finish(&GenerateFrameFailedError{Cause: err})
			return
		}

		timestamp := d.ActualTime - s.start
		if timestamp < 0 {
			timestamp = 0
		}

		if err := s.enc.AddFrame(ports.FrameRecord{
			Index:     s.nextIndex,
			Pixels:    pixels,
			Timestamp: timestamp,
		}); err != nil {
			s.finish(&AddFrameFailedError{Cause: err})
			return
		}
		s.nextIndex++

		if d.IsLast {
			s.finish(nil)
			return
		}
	}

	// The stream closed without a final frame: either cancellation
	// stopped the source, or it ended early.
	if s.conv.cancelled.Load() {
		s.finish(ErrCancelled)
	} else {
		s.finish(&GenerateFrameFailedError{Cause: fmt.Errorf("frame stream ended early after %d frames", s.nextIndex)})
	}
}

// finish funnels every exit path through the same sequence: finalize the
// encoder, release it, then deliver the terminal result exactly once.
func (s *runState) finish(runErr error) {
	if finishErr := s.enc.Finish(); finishErr != nil && runErr == nil {
		runErr = &WriteFailedError{Cause: finishErr}
	}
	s.enc.Release()

	// Cancellation observed here supersedes a concurrent success or error.
	if s.conv.cancelled.Load() {
		runErr = ErrCancelled
	}

	if !s.conv.done.CompareAndSwap(false, true) {
		return
	}
	if runErr != nil {
		s.resultCh <- outcome{err: runErr}
		return
	}
	s.resultCh <- outcome{result: &Result{Data: s.output, Multiplier: s.multiplier}}
}

// onEncodeStep counts one completed progress unit and reports whether the
// encoder should continue.
func (s *runState) onEncodeStep() bool {
	completed := s.completed.Add(1)
	if cb := s.conv.OnProgress; cb != nil {
		cb(int(completed), int(s.total.Load()))
	}
	return !s.conv.cancelled.Load()
}

// onChunk appends one encoder output chunk to the accumulated result.
// Chunks arrive sequentially by the encoder contract.
func (s *runState) onChunk(chunk []byte) error {
	s.output = append(s.output, chunk...)
	return nil
}

// reviseTotal adopts the decoder-reported total once, in case it differs
// from the planned frame count.
func (s *runState) reviseTotal(total int) {
	if s.totalRevised || int64(total) == s.total.Load() {
		return
	}
	s.totalRevised = true
	s.total.Store(int64(total))
}

func requestedRange(req Request) *ports.TimeRange {
	if req.From == nil && req.To == nil {
		return nil
	}
	start := 0.0
	if req.From != nil {
		start = *req.From
	}
	end := start
	if req.To != nil {
		end = *req.To
	}
	if req.To == nil {
		// Open-ended range: reach past any plausible video duration and
		// let the track range intersection trim it.
		end = start + 1e9
	}
	return &ports.TimeRange{Start: start, Duration: end - start}
}

func qualityPercent(quality float64) int {
	q := int(quality * 100)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}

func loopCount(count *int16) int16 {
	if count == nil {
		return 0
	}
	return *count
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
