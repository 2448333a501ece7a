package converter

import (
	"errors"
	"fmt"
)

// ErrCancelled is the terminal outcome of a cancelled conversion. Once
// cancellation is observed by the completion latch it takes priority over a
// concurrently produced success or error.
var ErrCancelled = errors.New("conversion cancelled")

// UnreadableFileError reports a source with no readable video track or
// time range.
type UnreadableFileError struct {
	Cause error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable video file: %v", e.Cause)
}

func (e *UnreadableFileError) Unwrap() error { return e.Cause }

// InvalidSettingsError reports encoder settings the encoder rejected.
type InvalidSettingsError struct {
	Cause error
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid encoder settings: %v", e.Cause)
}

func (e *InvalidSettingsError) Unwrap() error { return e.Cause }

// GenerateFrameFailedError reports a sampled frame that could not be
// decoded or converted to pixels.
type GenerateFrameFailedError struct {
	Cause error
}

func (e *GenerateFrameFailedError) Error() string {
	return fmt.Sprintf("generate frame failed: %v", e.Cause)
}

func (e *GenerateFrameFailedError) Unwrap() error { return e.Cause }

// AddFrameFailedError reports a frame the encoder rejected.
type AddFrameFailedError struct {
	Cause error
}

func (e *AddFrameFailedError) Error() string {
	return fmt.Sprintf("add frame failed: %v", e.Cause)
}

func (e *AddFrameFailedError) Unwrap() error { return e.Cause }

// WriteFailedError reports an encoder failure during finalization.
type WriteFailedError struct {
	Cause error
}

func (e *WriteFailedError) Error() string {
	return fmt.Sprintf("write failed: %v", e.Cause)
}

func (e *WriteFailedError) Unwrap() error { return e.Cause }
