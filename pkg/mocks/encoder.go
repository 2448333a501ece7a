package mocks

import (
	"github.com/Peterliu358/Gifski/pkg/ports"
)

// GifEncoder is a mock implementation of ports.GifEncoder. It records
// submitted frames and lifecycle calls, and forwards to the optional Func
// fields for custom behavior.
type GifEncoder struct {
	AddFrameFunc func(frame ports.FrameRecord) error
	FinishFunc   func() error

	Progress ports.ProgressFunc
	Write    ports.WriteFunc

	Frames       []ports.FrameRecord
	FinishCalls  int
	ReleaseCalls int
}

func (m *GifEncoder) SetProgressFunc(fn ports.ProgressFunc) {
	m.Progress = fn
}

func (m *GifEncoder) SetWriteFunc(fn ports.WriteFunc) {
	m.Write = fn
}

func (m *GifEncoder) AddFrame(frame ports.FrameRecord) error {
	if m.AddFrameFunc != nil {
		if err := m.AddFrameFunc(frame); err != nil {
			return err
		}
	}
	m.Frames = append(m.Frames, frame)
	if m.Progress != nil {
		m.Progress()
	}
	return nil
}

func (m *GifEncoder) Finish() error {
	m.FinishCalls++
	if m.FinishFunc != nil {
		return m.FinishFunc()
	}
	return nil
}

func (m *GifEncoder) Release() {
	m.ReleaseCalls++
}

var _ ports.GifEncoder = (*GifEncoder)(nil)
