package mp4source

import (
	"errors"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// ErrNoVideoTrack is returned when the file has no readable video track.
var ErrNoVideoTrack = errors.New("mp4source: no video track found")

// probeFile reads the metadata of the first video track: its own time
// range (which may be shorter than the asset duration), dimensions and
// native frame rate.
func probeFile(path string) (ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	trak := findVideoTrack(mp4File)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}

	var timescale uint32 = 1000
	var mediaDuration uint64
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
		mediaDuration = trak.Mdia.Mdhd.Duration
	}
	if timescale == 0 {
		return ports.VideoInfo{}, fmt.Errorf("video track has zero timescale")
	}

	sampleCount := countSamples(mp4File, trak)
	duration := float64(mediaDuration) / float64(timescale)
	if duration <= 0 || sampleCount == 0 {
		return ports.VideoInfo{}, fmt.Errorf("video track has no samples: %w", ErrNoVideoTrack)
	}

	width := int(trak.Tkhd.Width >> 16)
	height := int(trak.Tkhd.Height >> 16)
	if width == 0 || height == 0 {
		return ports.VideoInfo{}, fmt.Errorf("video track has no dimensions: %w", ErrNoVideoTrack)
	}

	return ports.VideoInfo{
		TrackRange: ports.TimeRange{Start: 0, Duration: duration},
		FPS:        float64(sampleCount) / duration,
		Width:      width,
		Height:     height,
	}, nil
}

// findVideoTrack returns the first 'vide' track, looking at the init
// segment for fragmented files and at moov for progressive ones.
func findVideoTrack(mp4File *mp4.File) *mp4.TrakBox {
	var traks []*mp4.TrakBox
	if mp4File.IsFragmented() {
		if mp4File.Init != nil && mp4File.Init.Moov != nil {
			traks = mp4File.Init.Moov.Traks
		}
	} else if mp4File.Moov != nil {
		traks = mp4File.Moov.Traks
	}

	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// countSamples counts video samples from the sample table, or from the
// fragments when the file is fragmented.
func countSamples(mp4File *mp4.File, trak *mp4.TrakBox) uint64 {
	if !mp4File.IsFragmented() {
		if trak.Mdia != nil && trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil &&
			trak.Mdia.Minf.Stbl.Stsz != nil {
			return uint64(trak.Mdia.Minf.Stbl.Stsz.SampleNumber)
		}
		return 0
	}

	var count uint64
	trackID := trak.Tkhd.TrackID
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					count += uint64(trun.SampleCount())
				}
			}
		}
	}
	return count
}
