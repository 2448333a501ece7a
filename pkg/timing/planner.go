// Package timing derives the sampling plan for a conversion: the effective
// frame rate and the ordered timestamps at which frames are taken.
package timing

import (
	"fmt"
	"math"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// Frame rate bounds for generated GIFs. The configured lower bound is 5,
// relaxed internally to 0.1 to tolerate very low fps sources.
const (
	MinFPS = 0.1
	MaxFPS = 30.0
)

// NotEnoughFramesError reports a plan whose frame count is below 2.
type NotEnoughFramesError struct {
	FrameCount int
}

func (e *NotEnoughFramesError) Error() string {
	return fmt.Sprintf("not enough frames: computed plan has %d, need at least 2", e.FrameCount)
}

// PlanRequest contains the inputs for timestamp planning.
type PlanRequest struct {
	// Info is the probed metadata of the source's first video track.
	Info ports.VideoInfo
	// FPS is the requested frame rate, nil for the source's native rate.
	FPS *float64
	// Range restricts sampling to a part of the timeline, nil for the
	// whole video track.
	Range *ports.TimeRange
}

// Plan is the resolved sampling schedule.
type Plan struct {
	// EffectiveFPS is the frame rate actually used for sampling.
	EffectiveFPS float64
	// Range is the sampled part of the source timeline.
	Range ports.TimeRange
	// Timestamps are strictly increasing sample times in seconds,
	// starting at Range.Start and spaced by 1/EffectiveFPS.
	Timestamps []float64
	// Tolerance is the frame-to-frame timing tolerance handed to the
	// frame source.
	Tolerance float64
}

// FrameCount returns the number of planned samples.
func (p Plan) FrameCount() int {
	return len(p.Timestamps)
}

// NewPlan computes the sampling plan for a request.
//
// The effective frame rate is the requested rate capped at the source rate
// and clamped to [MinFPS, MaxFPS]. The sampled range is the intersection of
// the requested range with the video track's own range; the track range may
// be shorter than the asset duration and wins over it.
func NewPlan(req PlanRequest) (Plan, error) {
	fps := req.Info.FPS
	if req.FPS != nil && *req.FPS < fps {
		fps = *req.FPS
	}
	fps = clamp(fps, MinFPS, MaxFPS)

	videoRange := req.Info.TrackRange
	if req.Range != nil {
		intersected, ok := req.Range.Intersect(videoRange)
		if !ok {
			return Plan{}, &NotEnoughFramesError{FrameCount: 0}
		}
		videoRange = intersected
	}

	frameCount := int(math.Floor(videoRange.Duration * fps))
	if frameCount < 2 {
		return Plan{}, &NotEnoughFramesError{FrameCount: frameCount}
	}

	timestamps := make([]float64, frameCount)
	for i := range timestamps {
		timestamps[i] = videoRange.Start + float64(i)/fps
	}

	return Plan{
		EffectiveFPS: fps,
		Range:        videoRange,
		Timestamps:   timestamps,
		Tolerance:    0.5 / fps,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
