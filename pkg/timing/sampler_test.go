package timing

import "testing"

func sequentialTimestamps(n int) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) / 30
	}
	return ts
}

func TestSampleForEstimation_SmallPlanUnchanged(t *testing.T) {
	ts := sequentialTimestamps(25)
	sampled, multiplier := SampleForEstimation(ts)

	if len(sampled) != 25 {
		t.Errorf("sampled count: expected 25, got %d", len(sampled))
	}
	if multiplier != 1 {
		t.Errorf("multiplier: expected 1, got %v", multiplier)
	}
}

func TestSampleForEstimation_FortyFramePlan(t *testing.T) {
	// 40 frames split into 8 chunks of 5; 5 chunks survive, so 25 frames
	// and a multiplier of 40/25 = 1.6.
	ts := sequentialTimestamps(40)
	sampled, multiplier := SampleForEstimation(ts)

	if len(sampled) != 25 {
		t.Fatalf("sampled count: expected 25, got %d", len(sampled))
	}
	if multiplier != 1.6 {
		t.Errorf("multiplier: expected 1.6, got %v", multiplier)
	}

	// Original order must be preserved.
	for i := 1; i < len(sampled); i++ {
		if sampled[i] <= sampled[i-1] {
			t.Fatalf("sampled timestamps not increasing at %d", i)
		}
	}

	// First and last chunks always survive even spacing.
	if sampled[0] != ts[0] {
		t.Errorf("first sampled: expected %v, got %v", ts[0], sampled[0])
	}
	if sampled[len(sampled)-1] != ts[len(ts)-1] {
		t.Errorf("last sampled: expected %v, got %v", ts[len(ts)-1], sampled[len(sampled)-1])
	}
}

func TestSampleForEstimation_LargePlanReduces(t *testing.T) {
	ts := sequentialTimestamps(300)
	sampled, multiplier := SampleForEstimation(ts)

	if len(sampled) >= len(ts) {
		t.Fatalf("expected reduction, got %d of %d", len(sampled), len(ts))
	}
	if len(sampled) != 25 {
		t.Errorf("sampled count: expected 25, got %d", len(sampled))
	}
	if multiplier != 12 {
		t.Errorf("multiplier: expected 12, got %v", multiplier)
	}
}

func TestSampleForEstimation_PartialLastChunk(t *testing.T) {
	// 27 frames make 6 chunks, the last holding 2 timestamps. The
	// multiplier stays the real-valued original/sampled ratio.
	ts := sequentialTimestamps(27)
	sampled, multiplier := SampleForEstimation(ts)

	if len(sampled) >= 27 {
		t.Fatalf("expected reduction, got %d", len(sampled))
	}
	expected := float64(27) / float64(len(sampled))
	if multiplier != expected {
		t.Errorf("multiplier: expected %v, got %v", expected, multiplier)
	}
}
