package timing

import "math"

const (
	// estimationThreshold is the frame count above which estimation runs
	// sample a subset of the plan.
	estimationThreshold = 25
	// estimationChunkSize is the length of each contiguous timestamp chunk.
	estimationChunkSize = 5
	// estimationChunkCount is how many chunks an estimation run keeps.
	estimationChunkCount = 5
)

// SampleForEstimation reduces a timestamp list for a fast, approximate
// size-estimation run.
//
// Plans of more than 25 frames are partitioned into contiguous chunks of 5
// timestamps; 5 evenly spaced chunks are kept and flattened back into one
// ordered sequence. The returned multiplier is the ratio of original to
// sampled frame count, used to extrapolate the full output size. Smaller
// plans are returned unchanged with multiplier 1.
func SampleForEstimation(timestamps []float64) ([]float64, float64) {
	if len(timestamps) <= estimationThreshold {
		return timestamps, 1
	}

	var chunks [][]float64
	for start := 0; start < len(timestamps); start += estimationChunkSize {
		end := start + estimationChunkSize
		if end > len(timestamps) {
			end = len(timestamps)
		}
		chunks = append(chunks, timestamps[start:end])
	}

	sampled := make([]float64, 0, estimationChunkCount*estimationChunkSize)
	for _, idx := range evenIndices(len(chunks), estimationChunkCount) {
		sampled = append(sampled, chunks[idx]...)
	}

	return sampled, float64(len(timestamps)) / float64(len(sampled))
}

// evenIndices returns count distinct indices evenly spaced over [0, n).
func evenIndices(n, count int) []int {
	if n <= count {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, 0, count)
	prev := -1
	for i := 0; i < count; i++ {
		idx := int(math.Round(float64(i) * float64(n-1) / float64(count-1)))
		if idx == prev {
			idx++
		}
		indices = append(indices, idx)
		prev = idx
	}
	return indices
}
