// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource.
type FrameSource struct {
	ProbeFunc          func(ctx context.Context, source string) (ports.VideoInfo, error)
	GenerateFramesFunc func(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error)
}

func (m *FrameSource) Probe(ctx context.Context, source string) (ports.VideoInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, source)
	}
	return ports.VideoInfo{}, nil
}

func (m *FrameSource) GenerateFrames(ctx context.Context, req ports.GenerateRequest) (<-chan ports.FrameDelivery, error) {
	if m.GenerateFramesFunc != nil {
		return m.GenerateFramesFunc(ctx, req)
	}
	ch := make(chan ports.FrameDelivery)
	close(ch)
	return ch, nil
}

var _ ports.FrameSource = (*FrameSource)(nil)
