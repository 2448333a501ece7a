package ports

import (
	"context"
	"image"
)

// TimeRange is a closed interval on a video timeline, in seconds.
type TimeRange struct {
	Start    float64
	Duration float64
}

// End returns the end of the range in seconds.
func (r TimeRange) End() float64 {
	return r.Start + r.Duration
}

// Intersect returns the intersection of two ranges. The boolean is false
// when the ranges do not overlap.
func (r TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	start := r.Start
	if other.Start > start {
		start = other.Start
	}
	end := r.End()
	if other.End() < end {
		end = other.End()
	}
	if end <= start {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, Duration: end - start}, true
}

// VideoInfo describes the first video track of a source file.
type VideoInfo struct {
	// TrackRange is the video track's own time range, which may differ
	// from the asset's total duration.
	TrackRange TimeRange
	// FPS is the track's native frame rate.
	FPS float64
	// Width and Height are the coded dimensions in pixels.
	Width  int
	Height int
}

// GenerateRequest asks a FrameSource for decoded frames at specific times.
type GenerateRequest struct {
	// Source identifies the video (a file path for file-backed sources).
	Source string
	// Timestamps is the ordered, deduplicated list of sample times in
	// seconds on the source timeline.
	Timestamps []float64
	// Tolerance is the acceptable deviation between a requested and an
	// actually sampled time, in seconds.
	Tolerance float64
	// MaxDimension, when non-zero, asks the source to downscale frames so
	// that neither side exceeds it.
	MaxDimension int
}

// FrameDelivery is one asynchronous result from GenerateFrames.
//
// Image is nil in exactly one tolerated case: the very last requested frame
// failed to decode but the stream is otherwise complete. Any earlier decode
// failure is reported through Err instead.
type FrameDelivery struct {
	Index      int
	ActualTime float64
	Total      int
	Image      image.Image
	IsLast     bool
	Err        error
}

// FrameSource produces decoded video frames at requested timestamps.
type FrameSource interface {
	// Probe inspects the source and returns metadata for its first video
	// track. It fails when the source has no readable video track.
	Probe(ctx context.Context, source string) (VideoInfo, error)

	// GenerateFrames asynchronously decodes one frame per requested
	// timestamp and delivers them in timestamp order on the returned
	// channel. Cancelling the context stops pending and future deliveries
	// promptly; the channel is always closed when production ends.
	GenerateFrames(ctx context.Context, req GenerateRequest) (<-chan FrameDelivery, error)
}
